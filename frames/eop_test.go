package frames

import "testing"

func TestParseEOPConfig(t *testing.T) {
	cfg, err := ParseEOPConfig([]byte("version: iers-bulletin-a-2024-01\ndut1_seconds: 0.0123\nleap_seconds: 37\n"))
	if err != nil {
		t.Fatalf("ParseEOPConfig: %v", err)
	}
	if cfg.Version != "iers-bulletin-a-2024-01" {
		t.Errorf("version: got %q", cfg.Version)
	}
	if cfg.DUT1Seconds != 0.0123 {
		t.Errorf("dut1: got %v", cfg.DUT1Seconds)
	}
	if cfg.LeapSeconds != 37 {
		t.Errorf("leap seconds: got %v", cfg.LeapSeconds)
	}
}

func TestParseEOPConfig_RequiresVersion(t *testing.T) {
	if _, err := ParseEOPConfig([]byte("dut1_seconds: 0.1\n")); err == nil {
		t.Fatal("config without a version should be rejected")
	}
}

func TestParseEOPConfig_RejectsMalformedYAML(t *testing.T) {
	if _, err := ParseEOPConfig([]byte("version: [unterminated")); err == nil {
		t.Fatal("malformed YAML should be rejected")
	}
}
