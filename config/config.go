// Package config holds the tunables consumed by the extraction pipeline and
// loads them from TOML, YAML or JSON files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Resolution is one STFT analysis resolution. Name doubles as the frame
// timebase name in the IR.
type Resolution struct {
	Name   string `json:"name" toml:"name" yaml:"name"`
	Window int    `json:"window" toml:"window" yaml:"window"`
	Hop    int    `json:"hop" toml:"hop" yaml:"hop"`
}

// Activity configures the energy-based activity segmenter.
type Activity struct {
	ThresholdDB  float64 `json:"threshold_db" toml:"threshold_db" yaml:"threshold_db"`
	MinOnSeconds float64 `json:"min_on_seconds" toml:"min_on_seconds" yaml:"min_on_seconds"`
	// MinOffSeconds is accepted but not used to merge gaps between runs.
	MinOffSeconds float64 `json:"min_off_seconds" toml:"min_off_seconds" yaml:"min_off_seconds"`
}

// Onset configures the spectral-flux onset detector.
type Onset struct {
	ZThreshold    float64 `json:"z_threshold" toml:"z_threshold" yaml:"z_threshold"`
	MinGapSeconds float64 `json:"min_gap_seconds" toml:"min_gap_seconds" yaml:"min_gap_seconds"`
}

// Ingest configures input checks. ExpectedSampleRate 0 disables the check.
type Ingest struct {
	ExpectedSampleRate int `json:"expected_sample_rate" toml:"expected_sample_rate" yaml:"expected_sample_rate"`
}

// Blob selects the blob store backend. Root is required for "fs".
type Blob struct {
	Mode string `json:"mode" toml:"mode" yaml:"mode"`
	Root string `json:"root" toml:"root" yaml:"root"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `json:"level" toml:"level" yaml:"level"`
}

// Config encapsulates all configuration values.
//
// Sections by consumer:
//   - Resolutions, Activity, Onset: the deterministic extractor
//   - Ingest: the canonicalizer's sample-rate check
//   - Blob: the pipeline's blob store
//   - Logging: the CLI
type Config struct {
	Resolutions []Resolution `json:"resolutions" toml:"resolutions" yaml:"resolutions"`
	Activity    Activity     `json:"activity" toml:"activity" yaml:"activity"`
	Onset       Onset        `json:"onset" toml:"onset" yaml:"onset"`
	Ingest      Ingest       `json:"ingest" toml:"ingest" yaml:"ingest"`
	Blob        Blob         `json:"blob" toml:"blob" yaml:"blob"`
	Logging     Logging      `json:"logging" toml:"logging" yaml:"logging"`
}

// Load reads and validates a configuration file. Keys missing from the file
// keep their Default() values. The codec is chosen by file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	// a file that lists resolutions replaces the defaults rather than extending them
	cfg.Resolutions = nil
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", ErrInvalid, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Resolutions) == 0 {
		cfg.Resolutions = Default().Resolutions
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FrameSeconds returns the duration of one hop at sampleRate.
func (r Resolution) FrameSeconds(sampleRate int) float64 {
	return float64(r.Hop) / float64(sampleRate)
}
