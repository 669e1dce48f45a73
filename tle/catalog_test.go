package tle

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/exotrail/spacetower-go-sdk/internal/observability"
)

func catalogTLE(t *testing.T, epochField string) *TwoLineElement {
	t.Helper()
	line1 := "1 25544U 98067A   " + epochField + "  .00001929  00000-0  43263-4 0  999"
	line1 += string(rune('0' + ComputeChecksum(line1)))
	return mustTLE(t, line1, issLine2)
}

func TestCatalog_AddAndSelect(t *testing.T) {
	c := NewCatalog()
	early := catalogTLE(t, "21110.00000000")
	late := catalogTLE(t, "21118.00000000")

	if err := c.Add(late); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(early); err != nil {
		t.Fatalf("Add: %v", err)
	}

	history := c.List("25544")
	if len(history) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(history))
	}
	if !history[0].Equal(early) {
		t.Error("history must be sorted by epoch")
	}

	got, err := c.SelectClosest("25544", time.Date(2021, 4, 21, 0, 0, 0, 0, time.UTC), false)
	if err != nil {
		t.Fatalf("SelectClosest: %v", err)
	}
	if !got.Equal(early) {
		t.Errorf("SelectClosest picked epoch %v", got.Epoch())
	}

	if _, err := c.SelectClosest("99999", time.Now().UTC(), false); err == nil {
		t.Error("unknown NORAD ID should fail")
	}
}

func TestCatalog_RejectsExactDuplicates(t *testing.T) {
	c := NewCatalog()
	tle := catalogTLE(t, "21110.00000000")
	if err := c.Add(tle); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(tle); err == nil {
		t.Error("duplicate element set should be rejected")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCatalog_SubscribeAndUnsubscribe(t *testing.T) {
	c := NewCatalog()

	var events []Event
	unsubscribe := c.Subscribe(func(e Event) { events = append(events, e) })

	if err := c.Add(catalogTLE(t, "21110.00000000")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != EventElementSetAdded || events[0].NoradID != "25544" {
		t.Errorf("unexpected event: %+v", events[0])
	}

	unsubscribe()
	if err := c.Add(catalogTLE(t, "21114.00000000")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(events) != 1 {
		t.Error("unsubscribed callback must not fire")
	}
}

func TestCatalog_UnsubscribeOutOfOrder(t *testing.T) {
	c := NewCatalog()

	var first, second, third int
	unsubFirst := c.Subscribe(func(Event) { first++ })
	unsubSecond := c.Subscribe(func(Event) { second++ })
	c.Subscribe(func(Event) { third++ })

	// Removing an earlier subscriber must not shift later ones.
	unsubFirst()
	if err := c.Add(catalogTLE(t, "21110.00000000")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first != 0 || second != 1 || third != 1 {
		t.Fatalf("after first unsubscribe: first=%d second=%d third=%d", first, second, third)
	}

	unsubSecond()
	unsubSecond() // double unsubscribe is a no-op
	if err := c.Add(catalogTLE(t, "21114.00000000")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first != 0 || second != 1 || third != 2 {
		t.Fatalf("after second unsubscribe: first=%d second=%d third=%d", first, second, third)
	}
}

func TestCatalog_UpdatesMetricsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c := NewCatalog(WithMetrics(collector))

	if err := c.Add(catalogTLE(t, "21110.00000000")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(catalogTLE(t, "21114.00000000")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got := testutil.ToFloat64(collector.CatalogEntries); got != 2 {
		t.Errorf("tle_catalog_entries = %v, want 2", got)
	}
}
