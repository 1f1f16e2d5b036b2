package myotel

import (
	"github.com/arloliu/fuda"
)

// LoadConfig loads a TelemetryConfig from a file path.
// YAML and JSON formats are supported. Environment variables override
// file values, and struct-tag defaults and validation are applied.
func LoadConfig(path string) (*TelemetryConfig, error) {
	var cfg TelemetryConfig
	if err := fuda.LoadFile(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseConfig parses a TelemetryConfig from a byte slice.
// The format (YAML or JSON) is auto-detected. Environment variables
// override parsed values, and struct-tag defaults and validation are
// applied.
func ParseConfig(data []byte) (*TelemetryConfig, error) {
	var cfg TelemetryConfig
	if err := fuda.LoadBytes(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
