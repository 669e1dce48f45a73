package frames

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EOPConfig carries the Earth-orientation parameters used by the
// transformation engine. It is explicit and versioned so that frame
// conversions are reproducible given identical inputs; there is no hidden
// global table.
type EOPConfig struct {
	// Version labels the parameter set, e.g. an IERS bulletin reference.
	Version string `yaml:"version"`
	// DUT1Seconds is UT1-UTC in seconds, applied before computing the
	// Earth rotation angle.
	DUT1Seconds float64 `yaml:"dut1_seconds"`
	// LeapSeconds is TAI-UTC at the epoch the config was issued for. It is
	// carried as part of the versioned set for traceability.
	LeapSeconds int `yaml:"leap_seconds"`
}

// DefaultEOPConfig returns the baseline parameter set: UT1 assumed equal to
// UTC. Adequate for SGP4-class accuracy; callers needing sub-second Earth
// rotation precision should inject measured DUT1 values.
func DefaultEOPConfig() EOPConfig {
	return EOPConfig{
		Version:     "default-ut1-equals-utc",
		DUT1Seconds: 0,
		LeapSeconds: 37,
	}
}

// ParseEOPConfig decodes an EOPConfig from YAML bytes.
func ParseEOPConfig(b []byte) (EOPConfig, error) {
	var cfg EOPConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return EOPConfig{}, fmt.Errorf("frames: parsing EOP config: %w", err)
	}
	if cfg.Version == "" {
		return EOPConfig{}, fmt.Errorf("frames: EOP config must declare a version")
	}
	return cfg, nil
}

// LoadEOPConfig reads an EOPConfig from a YAML file.
func LoadEOPConfig(path string) (EOPConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return EOPConfig{}, err
	}
	return ParseEOPConfig(b)
}
