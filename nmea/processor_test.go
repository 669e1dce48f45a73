package nmea

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/exotrail/spacetower-go-sdk/dates"
	"github.com/exotrail/spacetower-go-sdk/internal/observability"
)

var testLog = []string{
	"$GPGGA,120000.00,4339.7000,N,00121.4000,E,1,08,1.0,415000.5,M,47.3,M,,*5F",
	"$GPRMC,120000.00,A,4339.7000,N,00121.4000,E,14.20,83.5,070124,,,A*68",
	"$GPGGA,120020.00,4339.8000,N,00121.5000,E,1,08,1.0,415001.0,M,47.3,M,,*00", // corrupted checksum
	"$GPRMC,120020.00,A,4339.8000,N,00121.5000,E,14.25,83.6,070124,,,A*62",
	"$GPVTG,83.5,T,,M,14.20,N,26.3,K,A*03",
	"$GPGGA,120040.00,4340.0000,N,00121.7000,E,1,09,0.9,414980.2,M,,M,,*41",
}

func TestProcess(t *testing.T) {
	p := NewProcessor()
	bundles, stats, err := p.Process(context.Background(), testLog)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(bundles) != 3 {
		t.Fatalf("bundles = %d, want 3", len(bundles))
	}

	// First fix: GGA and RMC share a UTC time, so they share a bundle.
	if bundles[0].RMC == nil || bundles[0].GGA == nil {
		t.Error("matching GGA and RMC must be paired")
	}
	if want := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC); !bundles[0].Epoch.Equal(want) {
		t.Errorf("first epoch: %v", bundles[0].Epoch)
	}

	// Second fix: the companion GGA failed its checksum, RMC stands alone.
	if bundles[1].RMC == nil || bundles[1].GGA != nil {
		t.Error("RMC whose companion GGA is corrupted must stand alone")
	}
	if len(stats.CorruptedGGADates) != 1 || !stats.CorruptedGGADates[0].Equal(bundles[1].Epoch) {
		t.Errorf("corrupted GGA dates: %v", stats.CorruptedGGADates)
	}

	// Third fix: a lone GGA borrows its calendar day from the dated bundles.
	if bundles[2].RMC != nil || bundles[2].GGA == nil {
		t.Error("lone GGA must yield a GGA-only bundle")
	}
	if want := time.Date(2024, 1, 7, 12, 0, 40, 0, time.UTC); !bundles[2].Epoch.Equal(want) {
		t.Errorf("lone GGA epoch: %v", bundles[2].Epoch)
	}

	if stats.RawLines != 6 || stats.RMCSentences != 2 || stats.GGASentences != 3 {
		t.Errorf("sentence counts: %+v", stats)
	}
	if stats.ValidRMCSentences != 2 || stats.ValidGGASentences != 2 || stats.LoneGGASentences != 1 {
		t.Errorf("valid counts: %+v", stats)
	}
	if stats.ChecksumMismatches != 1 || stats.SkippedLines != 1 || stats.MalformedSentences != 0 {
		t.Errorf("rejection counts: %+v", stats)
	}
	if len(stats.NoGGADates) != 0 {
		t.Errorf("no-GGA dates: %v", stats.NoGGADates)
	}
}

func TestProcess_NoValidSentences(t *testing.T) {
	p := NewProcessor()
	if _, _, err := p.Process(context.Background(), []string{"$GPVTG,83.5,T,,M,14.20,N,26.3,K,A*03", "garbage"}); err == nil {
		t.Fatal("a log with no usable sentence must fail")
	}
}

func TestProcess_LoneGGAWithoutDateContextIsDropped(t *testing.T) {
	p := NewProcessor()
	_, _, err := p.Process(context.Background(), []string{
		"$GPGGA,120040.00,4340.0000,N,00121.7000,E,1,09,0.9,414980.2,M,,M,,*41",
	})
	if err == nil {
		t.Fatal("a log of only undatable GGA sentences must fail")
	}
}

func TestProcess_CRLFAndBlankLines(t *testing.T) {
	p := NewProcessor()
	lines := []string{
		"",
		"$GPRMC,120000.00,A,4339.7000,N,00121.4000,E,14.20,83.5,070124,,,A*68\r\n",
	}
	bundles, stats, err := p.Process(context.Background(), lines)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(bundles) != 1 || stats.ValidRMCSentences != 1 {
		t.Errorf("bundles=%d stats=%+v", len(bundles), stats)
	}
}

func TestProcess_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	p := NewProcessor(WithMetrics(collector))
	if _, _, err := p.Process(context.Background(), testLog); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := testutil.ToFloat64(collector.NMEABundles); got != 3 {
		t.Errorf("nmea_bundles_total = %g, want 3", got)
	}
	if got := testutil.ToFloat64(collector.NMEASentences.WithLabelValues("GGA", "checksum_mismatch")); got != 1 {
		t.Errorf("checksum_mismatch counter = %g, want 1", got)
	}
}

func mustProcess(t *testing.T, lines []string) []Bundle {
	t.Helper()
	bundles, _, err := NewProcessor().Process(context.Background(), lines)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return bundles
}

func TestFilterByDateRange(t *testing.T) {
	bundles := mustProcess(t, testLog)

	dr, _ := dates.NewDateRange(
		time.Date(2024, 1, 7, 12, 0, 10, 0, time.UTC),
		time.Date(2024, 1, 7, 12, 0, 40, 0, time.UTC))
	kept, err := FilterByDateRange(bundles, dr)
	if err != nil {
		t.Fatalf("FilterByDateRange: %v", err)
	}
	// The end bound is inclusive, so the 12:00:40 bundle survives.
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}

	outside, _ := dates.NewDateRange(
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	if _, err := FilterByDateRange(bundles, outside); err == nil {
		t.Error("a range after the last measurement must be rejected")
	}
	before, _ := dates.NewDateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if _, err := FilterByDateRange(bundles, before); err == nil {
		t.Error("a range before the first measurement must be rejected")
	}
}

func TestFilterByMinimumStep(t *testing.T) {
	bundles := mustProcess(t, testLog)
	kept, err := FilterByMinimumStep(bundles, 30*time.Second)
	if err != nil {
		t.Fatalf("FilterByMinimumStep: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	if !kept[0].Epoch.Equal(bundles[0].Epoch) {
		t.Error("decimation must keep the first bundle")
	}
	if !kept[1].Epoch.Equal(bundles[2].Epoch) {
		t.Errorf("second kept epoch: %v", kept[1].Epoch)
	}
}

func TestMergeSentences(t *testing.T) {
	bundles := mustProcess(t, testLog)

	withGGA := MergeSentences(bundles, true)
	if len(withGGA) != 4 {
		t.Fatalf("lines = %d, want 4", len(withGGA))
	}
	if !strings.HasPrefix(withGGA[0], "$GPGGA") || !strings.HasPrefix(withGGA[1], "$GPRMC") {
		t.Errorf("within a bundle GGA must precede RMC: %v", withGGA[:2])
	}

	rmcOnly := MergeSentences(bundles, false)
	if len(rmcOnly) != 2 {
		t.Fatalf("RMC-only lines = %d, want 2", len(rmcOnly))
	}
	for _, line := range rmcOnly {
		if !strings.HasPrefix(line, "$GPRMC") {
			t.Errorf("unexpected line %q", line)
		}
	}
}

func TestMeasurements(t *testing.T) {
	bundles := mustProcess(t, testLog)
	ms := Measurements(bundles)
	if len(ms) != 3 {
		t.Fatalf("measurements = %d, want 3", len(ms))
	}

	paired := ms[0]
	if paired.GroundSpeed == nil || paired.Altitude == nil || paired.GeoidHeight == nil {
		t.Fatal("a paired bundle fills every optional field")
	}
	if *paired.Altitude != 415000.5 || *paired.GeoidHeight != 47.3 {
		t.Errorf("altitude/geoid: %g/%g", *paired.Altitude, *paired.GeoidHeight)
	}

	rmcOnly := ms[1]
	if rmcOnly.GroundSpeed == nil || rmcOnly.Altitude != nil {
		t.Error("an RMC-only bundle has speed but no altitude")
	}

	ggaOnly := ms[2]
	if ggaOnly.GroundSpeed != nil || ggaOnly.Altitude == nil {
		t.Error("a GGA-only bundle has altitude but no speed")
	}
	if ggaOnly.GeoidHeight == nil || *ggaOnly.GeoidHeight != 0 {
		t.Errorf("omitted geoid separation defaults to zero, got %v", ggaOnly.GeoidHeight)
	}
}

func TestMeasurementTable(t *testing.T) {
	bundles := mustProcess(t, testLog)
	table := MeasurementTable(bundles)
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	if len(table.Columns) != 6 || table.Columns[3] != "ground_speed_mps" {
		t.Errorf("columns: %v", table.Columns)
	}
	rows := table.Rows()
	if rows[1][4].Missing != true {
		t.Error("RMC-only row must have a missing altitude cell")
	}
	if rows[2][3].Missing != true {
		t.Error("GGA-only row must have a missing ground speed cell")
	}
}

func TestEpochs(t *testing.T) {
	bundles := mustProcess(t, testLog)
	ts := Epochs(bundles)
	if len(ts) != 3 || !dates.IsSorted(ts) {
		t.Errorf("epochs: %v", ts)
	}
}
