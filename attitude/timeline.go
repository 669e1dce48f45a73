// Package attitude models spacecraft orientation histories as quaternion
// timelines between a reference frame and the body frame.
package attitude

import (
	"fmt"
	"time"

	"github.com/exotrail/spacetower-go-sdk/dates"
	"github.com/exotrail/spacetower-go-sdk/export"
	"github.com/exotrail/spacetower-go-sdk/geometry"
)

// Sample is one dated attitude. The rotation maps source-frame coordinates
// to destination-frame coordinates.
type Sample struct {
	Rotation geometry.Quaternion
	Epoch    time.Time
}

// Timeline is an epoch-ordered attitude history. A timeline built without
// epochs holds a single static attitude.
//
// The frame names are metadata carried through processing untouched; the
// destination is typically a spacecraft body frame with no global
// registration, so it stays a free-form string.
type Timeline struct {
	sourceFrame      string
	destinationFrame string
	samples          []Sample
	static           bool
}

// NewTimeline builds a dated timeline from raw scalar-first components
// (q0=real, q1, q2, q3) and matching epochs. Epochs must be sorted
// non-decreasing; each quaternion is normalised and must be non-degenerate.
func NewTimeline(sourceFrame, destinationFrame string, components [][4]float64, epochs []time.Time) (*Timeline, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("attitude: timeline needs at least one quaternion")
	}
	if len(epochs) != len(components) {
		return nil, fmt.Errorf("attitude: %d quaternions but %d epochs", len(components), len(epochs))
	}
	for i := 1; i < len(epochs); i++ {
		if epochs[i].Before(epochs[i-1]) {
			return nil, fmt.Errorf("attitude: epoch %d (%s) precedes epoch %d: %w",
				i, epochs[i].Format(time.RFC3339), i-1, dates.ErrUnsorted)
		}
	}
	samples, err := toSamples(components, epochs)
	if err != nil {
		return nil, err
	}
	return &Timeline{
		sourceFrame:      sourceFrame,
		destinationFrame: destinationFrame,
		samples:          samples,
	}, nil
}

// NewStaticTimeline builds a timeline holding one undated attitude.
func NewStaticTimeline(sourceFrame, destinationFrame string, components [4]float64) (*Timeline, error) {
	samples, err := toSamples([][4]float64{components}, []time.Time{{}})
	if err != nil {
		return nil, err
	}
	return &Timeline{
		sourceFrame:      sourceFrame,
		destinationFrame: destinationFrame,
		samples:          samples,
		static:           true,
	}, nil
}

func toSamples(components [][4]float64, epochs []time.Time) ([]Sample, error) {
	samples := make([]Sample, len(components))
	for i, c := range components {
		q := geometry.Quaternion{W: c[0], X: c[1], Y: c[2], Z: c[3]}
		unit, err := q.Unit()
		if err != nil {
			return nil, fmt.Errorf("attitude: quaternion %d: %w", i, err)
		}
		samples[i] = Sample{Rotation: unit, Epoch: epochs[i]}
	}
	return samples, nil
}

// SourceFrame returns the reference frame the attitude is expressed from.
func (tl *Timeline) SourceFrame() string { return tl.sourceFrame }

// DestinationFrame returns the frame the attitude rotates into.
func (tl *Timeline) DestinationFrame() string { return tl.destinationFrame }

// Samples returns a snapshot of the timeline in epoch order.
func (tl *Timeline) Samples() []Sample {
	return append([]Sample(nil), tl.samples...)
}

// Len returns the number of samples.
func (tl *Timeline) Len() int { return len(tl.samples) }

// IsStatic reports whether the timeline holds a single undated attitude.
func (tl *Timeline) IsStatic() bool { return tl.static }

// Span returns the date range covered by a dated timeline.
func (tl *Timeline) Span() (dates.DateRange, error) {
	if tl.static {
		return dates.DateRange{}, fmt.Errorf("attitude: static timeline has no span")
	}
	return dates.NewDateRange(tl.samples[0].Epoch, tl.samples[len(tl.samples)-1].Epoch)
}

// At returns the attitude in effect at the given time: the latest sample at
// or before it. Before the first sample the first attitude applies. Static
// timelines return their single attitude for any time.
func (tl *Timeline) At(t time.Time) geometry.Quaternion {
	if tl.static {
		return tl.samples[0].Rotation
	}
	current := tl.samples[0].Rotation
	for _, s := range tl.samples[1:] {
		if s.Epoch.After(t) {
			break
		}
		current = s.Rotation
	}
	return current
}

// Deduplicate returns a timeline where runs of samples that repeat the
// previous kept attitude (within angularTol radians) at nearly the same
// epoch (within epochTol) collapse to their first occurrence.
func (tl *Timeline) Deduplicate(angularTol float64, epochTol time.Duration) *Timeline {
	if len(tl.samples) < 2 {
		return tl
	}
	kept := []Sample{tl.samples[0]}
	for _, s := range tl.samples[1:] {
		last := kept[len(kept)-1]
		if s.Epoch.Sub(last.Epoch) <= epochTol && last.Rotation.AngularDistance(s.Rotation) <= angularTol {
			continue
		}
		kept = append(kept, s)
	}
	return &Timeline{
		sourceFrame:      tl.sourceFrame,
		destinationFrame: tl.destinationFrame,
		samples:          kept,
		static:           tl.static,
	}
}

// EulerAngles decomposes every sample into the given rotation sequence.
func (tl *Timeline) EulerAngles(seq geometry.RotationSequence) ([]geometry.EulerAngles, error) {
	out := make([]geometry.EulerAngles, len(tl.samples))
	for i, s := range tl.samples {
		angles, err := s.Rotation.ToEulerAngles(seq)
		if err != nil {
			return nil, fmt.Errorf("attitude: sample %d: %w", i, err)
		}
		out[i] = angles
	}
	return out, nil
}

// ExportTable renders the timeline with one row per sample. Static samples
// have no date cell.
func (tl *Timeline) ExportTable() *export.Table {
	table := export.NewTable("attitude", "date", "q_real", "q_i", "q_j", "q_k")
	for _, s := range tl.samples {
		date := export.Value(s.Epoch)
		if tl.static {
			date = export.Missing()
		}
		// Row arity is fixed by construction.
		_ = table.AppendRow(date,
			export.Value(s.Rotation.W),
			export.Value(s.Rotation.X),
			export.Value(s.Rotation.Y),
			export.Value(s.Rotation.Z))
	}
	return table
}

// ExportEulerTable renders the timeline as roll/pitch/yaw angles in radians
// for the given rotation sequence.
func (tl *Timeline) ExportEulerTable(seq geometry.RotationSequence) (*export.Table, error) {
	angles, err := tl.EulerAngles(seq)
	if err != nil {
		return nil, err
	}
	table := export.NewTable("attitude_euler", "date", "roll", "pitch", "yaw")
	for i, s := range tl.samples {
		date := export.Value(s.Epoch)
		if tl.static {
			date = export.Missing()
		}
		_ = table.AppendRow(date,
			export.Value(angles[i].First),
			export.Value(angles[i].Second),
			export.Value(angles[i].Third))
	}
	return table, nil
}
