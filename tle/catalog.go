package tle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/exotrail/spacetower-go-sdk/internal/logging"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventElementSetAdded EventType = iota
)

// Event is emitted to subscribers when the catalog changes.
type Event struct {
	Type    EventType
	NoradID string
	Epoch   time.Time
}

// Catalog is an in-memory, thread-safe store of element sets keyed by NORAD
// catalog number. Each object's history is kept sorted by epoch so selection
// queries stay cheap.
type Catalog struct {
	mu   sync.RWMutex
	byID map[string][]*TwoLineElement
	subs []func(Event)

	settings
	total int
}

// NewCatalog constructs an empty catalog.
func NewCatalog(opts ...Option) *Catalog {
	s := settings{log: logging.Noop()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Catalog{
		byID:     make(map[string][]*TwoLineElement),
		settings: s,
	}
}

// Add inserts an element set into the catalog. Exact duplicates (identical
// lines) are rejected.
func (c *Catalog) Add(t *TwoLineElement) error {
	id := t.NoradID()

	c.mu.Lock()
	history := c.byID[id]
	for _, existing := range history {
		if existing.Equal(t) {
			c.mu.Unlock()
			return fmt.Errorf("tle: element set for NORAD %s at %s already in catalog", id, t.Epoch().Format(time.RFC3339))
		}
	}
	idx := sort.Search(len(history), func(i int) bool { return history[i].Epoch().After(t.Epoch()) })
	history = append(history, nil)
	copy(history[idx+1:], history[idx:])
	history[idx] = t
	c.byID[id] = history
	c.total++
	total := c.total

	event := Event{Type: EventElementSetAdded, NoradID: id, Epoch: t.Epoch()}
	subs := make([]func(Event), 0, len(c.subs))
	for _, sub := range c.subs {
		if sub != nil {
			subs = append(subs, sub)
		}
	}
	c.mu.Unlock()

	c.metrics.SetCatalogEntries(total)
	c.log.Debug(context.Background(), "element set added",
		logging.String("norad_id", id),
		logging.String("epoch", t.Epoch().Format(time.RFC3339)),
		logging.Int("catalog_size", total))

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// List returns a snapshot of the element set history for one object, sorted
// by epoch.
func (c *Catalog) List(noradID string) []*TwoLineElement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*TwoLineElement(nil), c.byID[noradID]...)
}

// NoradIDs returns the catalog numbers present, sorted.
func (c *Catalog) NoradIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the total number of element sets held.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// SelectClosest picks the object's element set whose epoch is closest to the
// given date; see the package-level SelectClosest for the selection rules.
func (c *Catalog) SelectClosest(noradID string, date time.Time, forcePast bool) (*TwoLineElement, error) {
	history := c.List(noradID)
	if len(history) == 0 {
		return nil, fmt.Errorf("tle: no element sets for NORAD %s", noradID)
	}
	return SelectClosest(history, date, forcePast)
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
	idx := len(c.subs) - 1

	// Unsubscribing clears the slot instead of compacting the slice, so
	// indices held by other unsubscribe functions stay valid.
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < 0 || idx >= len(c.subs) {
			return
		}
		c.subs[idx] = nil
		idx = -1
	}
}
