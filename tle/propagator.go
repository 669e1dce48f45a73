package tle

import (
	"context"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/exotrail/spacetower-go-sdk/dates"
	"github.com/exotrail/spacetower-go-sdk/frames"
	"github.com/exotrail/spacetower-go-sdk/geometry"
	"github.com/exotrail/spacetower-go-sdk/internal/logging"
	"github.com/exotrail/spacetower-go-sdk/internal/observability"
	"github.com/exotrail/spacetower-go-sdk/orbit"
)

// settings carries the ambient dependencies shared by Propagator and
// Catalog.
type settings struct {
	log     logging.Logger
	metrics *observability.Collector
}

// Option injects a logger or a metrics collector.
type Option func(*settings)

// WithLogger attaches a structured logger. The default drops all logs.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches a Prometheus collector. Without one, no metrics are
// recorded.
func WithMetrics(c *observability.Collector) Option {
	return func(s *settings) { s.metrics = c }
}

// Propagator evaluates the SGP4 analytic model seeded by one element set.
// States come out in the TEME frame of the underlying model, in km and
// km/s.
//
// A Propagator is immutable after construction and safe for concurrent use.
type Propagator struct {
	tle *TwoLineElement
	sat satellite.Satellite
	settings
}

// NewPropagator initialises the SGP4 model from the element set, using the
// WGS-72 gravity constants the model was fitted against.
func NewPropagator(t *TwoLineElement, opts ...Option) *Propagator {
	s := settings{log: logging.Noop()}
	for _, opt := range opts {
		opt(&s)
	}
	sat := satellite.TLEToSat(t.Line1(), t.Line2(), satellite.GravityWGS72)
	return &Propagator{tle: t, sat: sat, settings: s}
}

// TLE returns the element set the propagator was seeded with.
func (p *Propagator) TLE() *TwoLineElement { return p.tle }

// Propagate evaluates the model at the given UTC time. The result is an
// osculating TEME state tagged with TLE provenance.
func (p *Propagator) Propagate(ctx context.Context, at time.Time) (orbit.OrbitalState, error) {
	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	pos, vel := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	state := orbit.OrbitalState{
		Position: geometry.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: geometry.Vector3{X: vel.X, Y: vel.Y, Z: vel.Z},
		Epoch:    at,
		Frame:    frames.FrameTEME,
		Source:   orbit.SourceTLE,
	}
	if !state.Position.IsFinite() || !state.Velocity.IsFinite() || state.Position.Norm() < 1 {
		return orbit.OrbitalState{}, fmt.Errorf("tle: SGP4 model diverged for NORAD %s at %s", p.tle.NoradID(), at.Format(time.RFC3339))
	}

	p.metrics.CountPropagation()
	p.log.Debug(ctx, "propagated element set",
		logging.String("norad_id", p.tle.NoradID()),
		logging.String("at", at.Format(time.RFC3339)),
		logging.Float64("radius_km", state.Position.Norm()))
	return state, nil
}

// PropagateRange samples the model over a date range at a fixed step. The
// range must be bounded and the step positive. The end instant is included
// when it falls exactly on the grid.
func (p *Propagator) PropagateRange(ctx context.Context, dr dates.DateRange, step time.Duration) ([]orbit.OrbitalState, error) {
	if err := dr.Validate(); err != nil {
		return nil, err
	}
	if dr.Start.IsZero() || dr.End.IsZero() {
		return nil, fmt.Errorf("tle: propagation range must be bounded")
	}
	if step <= 0 {
		return nil, fmt.Errorf("tle: propagation step must be positive, got %s", step)
	}

	n := int(dr.End.Sub(dr.Start)/step) + 1
	states := make([]orbit.OrbitalState, 0, n)
	for at := dr.Start; !at.After(dr.End); at = at.Add(step) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state, err := p.Propagate(ctx, at)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

// MeanAltitude returns a coarse altitude estimate in km derived from the
// element set's mean motion, without running the model.
func (p *Propagator) MeanAltitude() float64 {
	const earthRadius = 6378.137
	revsPerDay := p.tle.Fields().MeanMotion
	period := 86400.0 / revsPerDay
	sma := math.Cbrt(orbit.EarthGravParam * period * period / (4 * math.Pi * math.Pi))
	return sma - earthRadius
}
