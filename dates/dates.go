// Package dates provides the time-ordering helpers shared by the telemetry
// pipelines: date ranges for masking measurements and keep-first decimation
// of time-ordered sequences.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsorted is returned when a sequence expected to be weakly increasing
// in time is not. Callers must sort their data first; silently reordering
// would mask upstream bugs.
var ErrUnsorted = errors.New("dates: sequence is not sorted by time")

// DateRange is a closed interval of instants used to mask time-ordered data.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a validated range. Start must not be after End.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate checks the start <= end invariant.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("dates: range start %s is after end %s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls within the range, bounds included.
// A zero Start or End leaves that side unbounded.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Clamp moves t inside the range, pinning it to the nearest bound when it
// falls outside. Zero bounds do not pin.
func (r DateRange) Clamp(t time.Time) time.Time {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return r.Start
	}
	if !r.End.IsZero() && t.After(r.End) {
		return r.End
	}
	return t
}

// Duration returns End - Start.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// FilterMinimumTimeStep decimates a time-ordered sequence: the first item
// is always kept, and afterwards an item is kept only when at least minStep
// has elapsed since the last kept item. This drops denser samples without
// averaging or interpolation. The at function extracts each item's
// timestamp; ErrUnsorted is returned when timestamps decrease.
func FilterMinimumTimeStep[T any](items []T, at func(T) time.Time, minStep time.Duration) ([]T, error) {
	if len(items) == 0 {
		return items, nil
	}
	if minStep <= 0 {
		out := make([]T, len(items))
		copy(out, items)
		return out, nil
	}

	out := []T{items[0]}
	last := at(items[0])
	prev := last
	for _, item := range items[1:] {
		cur := at(item)
		if cur.Before(prev) {
			return nil, ErrUnsorted
		}
		prev = cur
		if cur.Sub(last) >= minStep {
			out = append(out, item)
			last = cur
		}
	}
	return out, nil
}

// TimeSteps returns the successive deltas, in seconds, between consecutive
// timestamps of a time-ordered sequence.
func TimeSteps(ts []time.Time) []float64 {
	if len(ts) < 2 {
		return nil
	}
	steps := make([]float64, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		steps = append(steps, ts[i].Sub(ts[i-1]).Seconds())
	}
	return steps
}

// IsSorted reports whether ts is weakly increasing.
func IsSorted(ts []time.Time) bool {
	for i := 1; i < len(ts); i++ {
		if ts[i].Before(ts[i-1]) {
			return false
		}
	}
	return true
}
