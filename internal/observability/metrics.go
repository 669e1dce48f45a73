// Package observability holds the Prometheus collectors shared by the SDK's
// processing pipelines. Collectors register against an injected registerer
// and tolerate double registration, so tests and multiple pipeline instances
// can share one registry.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the SDK's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	// NMEASentences counts processed NMEA sentences by sentence type and
	// outcome (accepted, checksum_mismatch, malformed, skipped).
	NMEASentences *prometheus.CounterVec

	// NMEABundles counts measurement bundles assembled from valid sentences.
	NMEABundles prometheus.Counter

	// TLEPropagations counts SGP4 propagation calls.
	TLEPropagations prometheus.Counter

	// CatalogEntries tracks the number of two-line element sets held in a
	// catalog.
	CatalogEntries prometheus.Gauge
}

// NewCollector registers the SDK metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	sentences := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nmea_sentences_total",
		Help: "Processed NMEA sentences by sentence type and outcome.",
	}, []string{"type", "outcome"})
	sentences, err := registerCounterVec(reg, sentences, "nmea_sentences_total")
	if err != nil {
		return nil, err
	}

	bundles, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nmea_bundles_total",
		Help: "Measurement bundles assembled from valid NMEA sentences.",
	}), "nmea_bundles_total")
	if err != nil {
		return nil, err
	}

	propagations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tle_propagations_total",
		Help: "SGP4 propagation calls.",
	}), "tle_propagations_total")
	if err != nil {
		return nil, err
	}

	entries, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tle_catalog_entries",
		Help: "Two-line element sets currently held in the catalog.",
	}), "tle_catalog_entries")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		NMEASentences:   sentences,
		NMEABundles:     bundles,
		TLEPropagations: propagations,
		CatalogEntries:  entries,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// CountSentence is a nil-safe increment for the sentence counter.
func (c *Collector) CountSentence(sentenceType, outcome string) {
	if c == nil || c.NMEASentences == nil {
		return
	}
	c.NMEASentences.WithLabelValues(sentenceType, outcome).Inc()
}

// CountBundle is a nil-safe increment for the bundle counter.
func (c *Collector) CountBundle() {
	if c == nil || c.NMEABundles == nil {
		return
	}
	c.NMEABundles.Inc()
}

// CountPropagation is a nil-safe increment for the propagation counter.
func (c *Collector) CountPropagation() {
	if c == nil || c.TLEPropagations == nil {
		return
	}
	c.TLEPropagations.Inc()
}

// SetCatalogEntries is a nil-safe setter for the catalog gauge.
func (c *Collector) SetCatalogEntries(n int) {
	if c == nil || c.CatalogEntries == nil {
		return
	}
	c.CatalogEntries.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
