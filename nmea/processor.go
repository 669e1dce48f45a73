package nmea

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/exotrail/spacetower-go-sdk/dates"
	"github.com/exotrail/spacetower-go-sdk/export"
	"github.com/exotrail/spacetower-go-sdk/internal/logging"
	"github.com/exotrail/spacetower-go-sdk/internal/observability"
)

// Bundle pairs the sentences describing one fix. At least one of RMC and
// GGA is set: a GGA immediately preceding an RMC with the same UTC time
// shares its bundle, otherwise each sentence stands alone.
type Bundle struct {
	RMC   *RMCSentence
	GGA   *GGASentence
	Epoch time.Time
}

// HasAltitude reports whether the bundle carries GGA altitude data.
func (b Bundle) HasAltitude() bool { return b.GGA != nil }

// HasGroundSpeed reports whether the bundle carries RMC velocity data.
func (b Bundle) HasGroundSpeed() bool { return b.RMC != nil }

// Latitude returns the bundle's latitude in decimal degrees, preferring the
// RMC value.
func (b Bundle) Latitude() float64 {
	if b.RMC != nil {
		return b.RMC.Latitude
	}
	return b.GGA.Latitude
}

// Longitude returns the bundle's longitude in decimal degrees, preferring
// the RMC value.
func (b Bundle) Longitude() float64 {
	if b.RMC != nil {
		return b.RMC.Longitude
	}
	return b.GGA.Longitude
}

// Stats summarises one processing run.
type Stats struct {
	RawLines           int
	RMCSentences       int
	GGASentences       int
	ValidRMCSentences  int
	ValidGGASentences  int
	LoneGGASentences   int
	SkippedLines       int
	ChecksumMismatches int
	MalformedSentences int

	// NoGGADates lists epochs of valid RMC sentences with no usable GGA
	// companion; CorruptedGGADates those whose companion failed validation.
	NoGGADates        []time.Time
	CorruptedGGADates []time.Time
}

// Processor turns raw NMEA logs into sorted measurement bundles. It is
// stateless across calls and safe for concurrent use.
type Processor struct {
	log     logging.Logger
	metrics *observability.Collector
}

// Option injects a logger or a metrics collector.
type Option func(*Processor)

// WithLogger attaches a structured logger. The default drops all logs.
func WithLogger(l logging.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics attaches a Prometheus collector. Without one, no metrics are
// recorded.
func WithMetrics(c *observability.Collector) Option {
	return func(p *Processor) { p.metrics = c }
}

// NewProcessor constructs a Processor.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{log: logging.Noop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decodes raw log lines into bundles sorted by epoch. Unknown
// sentence types are skipped and counted; invalid RMC/GGA sentences are
// counted and reported through the stats without failing the run. It fails
// only when no bundle can be assembled at all.
//
// A valid GGA with no RMC companion still yields a bundle: its calendar day
// is borrowed from the nearest dated bundle, since GGA sentences carry only
// a time of day. Lone GGA sentences in a log with no valid RMC at all are
// dropped and counted.
func (p *Processor) Process(ctx context.Context, lines []string) ([]Bundle, Stats, error) {
	var (
		stats     Stats
		bundles   []Bundle
		orphans   []*GGASentence
		pending   *GGASentence
		pendingAt = -1
		invalidAt = -1
	)
	stats.RawLines = len(lines)

	for i, line := range lines {
		line = trimLine(line)
		if line == "" {
			continue
		}
		switch sentenceType(line) {
		case "$GPGGA":
			stats.GGASentences++
			g, err := ParseGGA(line)
			if err != nil {
				p.countInvalid(ctx, "GGA", err, &stats)
				invalidAt = i
				continue
			}
			stats.ValidGGASentences++
			p.metrics.CountSentence("GGA", "accepted")
			if pending != nil {
				orphans = append(orphans, pending)
			}
			pending, pendingAt = g, i

		case "$GPRMC":
			stats.RMCSentences++
			r, err := ParseRMC(line)
			if err != nil {
				p.countInvalid(ctx, "RMC", err, &stats)
				continue
			}
			stats.ValidRMCSentences++
			p.metrics.CountSentence("RMC", "accepted")

			b := Bundle{RMC: r, Epoch: r.Date}
			switch {
			case pending != nil && pendingAt == i-1 && pending.UTCTime == r.UTCTime:
				b.GGA = pending
				pending, pendingAt = nil, -1
			case invalidAt == i-1:
				stats.CorruptedGGADates = append(stats.CorruptedGGADates, r.Date)
			default:
				stats.NoGGADates = append(stats.NoGGADates, r.Date)
			}
			bundles = append(bundles, b)

		default:
			stats.SkippedLines++
			p.metrics.CountSentence("other", "skipped")
		}
	}
	if pending != nil {
		orphans = append(orphans, pending)
	}

	bundles = p.appendLoneGGABundles(ctx, bundles, orphans, &stats)
	if len(bundles) == 0 {
		return nil, stats, errors.New("nmea: no valid sentences found in the telemetry log")
	}

	sort.SliceStable(bundles, func(i, j int) bool { return bundles[i].Epoch.Before(bundles[j].Epoch) })
	for range bundles {
		p.metrics.CountBundle()
	}
	p.log.Info(ctx, "processed NMEA log",
		logging.Int("raw_lines", stats.RawLines),
		logging.Int("bundles", len(bundles)),
		logging.Int("checksum_mismatches", stats.ChecksumMismatches),
		logging.Int("malformed", stats.MalformedSentences))
	return bundles, stats, nil
}

// appendLoneGGABundles dates each orphan GGA with the calendar day of the
// closest-in-time dated bundle and appends the result.
func (p *Processor) appendLoneGGABundles(ctx context.Context, bundles []Bundle, orphans []*GGASentence, stats *Stats) []Bundle {
	if len(orphans) == 0 {
		return bundles
	}
	if len(bundles) == 0 {
		p.log.Warn(ctx, "dropping lone GGA sentences: no RMC sentence provides a calendar date",
			logging.Int("count", len(orphans)))
		return bundles
	}
	for _, g := range orphans {
		epoch, err := dateFromContext(g.UTCTime, bundles)
		if err != nil {
			p.log.Warn(ctx, "dropping lone GGA sentence", logging.String("reason", err.Error()))
			continue
		}
		stats.LoneGGASentences++
		bundles = append(bundles, Bundle{GGA: g, Epoch: epoch})
	}
	return bundles
}

func (p *Processor) countInvalid(ctx context.Context, sentenceType string, err error, stats *Stats) {
	var ce *ChecksumError
	if errors.As(err, &ce) {
		stats.ChecksumMismatches++
		p.metrics.CountSentence(sentenceType, "checksum_mismatch")
	} else {
		stats.MalformedSentences++
		p.metrics.CountSentence(sentenceType, "malformed")
	}
	p.log.Warn(ctx, "invalid sentence", logging.String("type", sentenceType), logging.String("error", err.Error()))
}

// dateFromContext combines a time-of-day field with the calendar day of the
// nearest dated bundle.
func dateFromContext(utcTime string, bundles []Bundle) (time.Time, error) {
	var zero time.Time
	ref := bundles[0].Epoch
	candidate, err := parseDateTime(ref.Format("020106"), utcTime)
	if err != nil {
		return zero, err
	}
	best := candidate
	bestDiff := absDuration(candidate.Sub(ref))
	for _, b := range bundles[1:] {
		c, err := parseDateTime(b.Epoch.Format("020106"), utcTime)
		if err != nil {
			return zero, err
		}
		if d := absDuration(c.Sub(b.Epoch)); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func sentenceType(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == ',' {
			return line[:i]
		}
	}
	return line
}

func trimLine(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

// Epochs returns the bundle timestamps in order.
func Epochs(bundles []Bundle) []time.Time {
	out := make([]time.Time, len(bundles))
	for i, b := range bundles {
		out[i] = b.Epoch
	}
	return out
}

// FilterByDateRange keeps the bundles whose epoch falls inside the range.
// Both bounds are inclusive: a bundle exactly at the end limit is kept,
// unlike the half-open selection of some GPS log tooling. A range entirely
// outside the data is an error, matching the behaviour of the measurement
// selection it feeds.
func FilterByDateRange(bundles []Bundle, dr dates.DateRange) ([]Bundle, error) {
	if err := dr.Validate(); err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, nil
	}
	first, last := bundles[0].Epoch, bundles[len(bundles)-1].Epoch
	if !dr.Start.IsZero() && dr.Start.After(last) {
		return nil, fmt.Errorf("nmea: start limit %s is after the last measurement %s",
			dr.Start.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	if !dr.End.IsZero() && dr.End.Before(first) {
		return nil, fmt.Errorf("nmea: end limit %s is before the first measurement %s",
			dr.End.Format(time.RFC3339), first.Format(time.RFC3339))
	}
	out := make([]Bundle, 0, len(bundles))
	for _, b := range bundles {
		if dr.Contains(b.Epoch) {
			out = append(out, b)
		}
	}
	return out, nil
}

// FilterByMinimumStep decimates the bundles so that consecutive epochs are
// at least minStep apart, keeping the first of each cluster. A zero step
// keeps everything.
func FilterByMinimumStep(bundles []Bundle, minStep time.Duration) ([]Bundle, error) {
	return dates.FilterMinimumTimeStep(bundles, func(b Bundle) time.Time { return b.Epoch }, minStep)
}

// MergeSentences flattens bundles back to raw log lines, GGA before RMC
// within a bundle. With useGGA false only RMC lines are emitted.
func MergeSentences(bundles []Bundle, useGGA bool) []string {
	out := make([]string, 0, 2*len(bundles))
	for _, b := range bundles {
		if b.GGA != nil && useGGA {
			out = append(out, b.GGA.Raw)
		}
		if b.RMC != nil {
			out = append(out, b.RMC.Raw)
		}
	}
	return out
}

// Measurement is the flat telemetry view of one bundle. Optional values
// are nil when the contributing sentence is absent.
type Measurement struct {
	Epoch       time.Time
	Latitude    float64  // deg
	Longitude   float64  // deg
	GroundSpeed *float64 // m/s, from RMC
	Altitude    *float64 // m, from GGA
	GeoidHeight *float64 // m, from GGA; 0 when the GGA omits it
}

// Measurements flattens bundles into measurements.
func Measurements(bundles []Bundle) []Measurement {
	out := make([]Measurement, len(bundles))
	for i, b := range bundles {
		m := Measurement{
			Epoch:     b.Epoch,
			Latitude:  b.Latitude(),
			Longitude: b.Longitude(),
		}
		if b.RMC != nil {
			speed := b.RMC.GroundSpeed
			m.GroundSpeed = &speed
		}
		if b.GGA != nil {
			alt := b.GGA.MSLAltitude
			m.Altitude = &alt
			geoid := 0.0
			if b.GGA.GeoidSeparation != nil {
				geoid = *b.GGA.GeoidSeparation
			}
			m.GeoidHeight = &geoid
		}
		out[i] = m
	}
	return out
}

// MeasurementTable renders bundles as a table with explicit missing cells
// for absent sentence data.
func MeasurementTable(bundles []Bundle) *export.Table {
	table := export.NewTable("nmea_measurements",
		"date", "latitude_deg", "longitude_deg", "ground_speed_mps", "altitude_m", "geoid_separation_m")
	for _, m := range Measurements(bundles) {
		cells := []export.Cell{
			export.Value(m.Epoch),
			export.Value(m.Latitude),
			export.Value(m.Longitude),
			optionalCell(m.GroundSpeed),
			optionalCell(m.Altitude),
			optionalCell(m.GeoidHeight),
		}
		// Row arity is fixed by construction.
		_ = table.AppendRow(cells...)
	}
	return table
}

func optionalCell(v *float64) export.Cell {
	if v == nil {
		return export.Missing()
	}
	return export.Value(*v)
}
