package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateResolutions(); err != nil {
		return err
	}
	if err := c.validateActivity(); err != nil {
		return err
	}
	if err := c.validateOnset(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	return c.validateBlob()
}

func (c *Config) validateResolutions() error {
	if len(c.Resolutions) == 0 {
		return fmt.Errorf("%w: at least one resolution is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Resolutions))
	for i, r := range c.Resolutions {
		if r.Name == "" {
			return fmt.Errorf("%w: resolutions[%d].name must be set", ErrInvalid, i)
		}
		if !isKeySafe(r.Name) {
			return fmt.Errorf("%w: resolutions[%d].name %q may only contain [A-Za-z0-9._-]", ErrInvalid, i, r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate resolution name %q", ErrInvalid, r.Name)
		}
		seen[r.Name] = true
		if r.Window < 2 {
			return fmt.Errorf("%w: resolutions[%d].window must be >= 2", ErrInvalid, i)
		}
		if r.Hop < 1 {
			return fmt.Errorf("%w: resolutions[%d].hop must be >= 1", ErrInvalid, i)
		}
	}
	return nil
}

func (c *Config) validateActivity() error {
	if !isFinite(c.Activity.ThresholdDB) {
		return fmt.Errorf("%w: activity.threshold_db must be finite", ErrInvalid)
	}
	if !isFinite(c.Activity.MinOnSeconds) || c.Activity.MinOnSeconds < 0 {
		return fmt.Errorf("%w: activity.min_on_seconds must be >= 0", ErrInvalid)
	}
	if !isFinite(c.Activity.MinOffSeconds) || c.Activity.MinOffSeconds < 0 {
		return fmt.Errorf("%w: activity.min_off_seconds must be >= 0", ErrInvalid)
	}
	return nil
}

func (c *Config) validateOnset() error {
	if !isFinite(c.Onset.ZThreshold) {
		return fmt.Errorf("%w: onset.z_threshold must be finite", ErrInvalid)
	}
	if !isFinite(c.Onset.MinGapSeconds) || c.Onset.MinGapSeconds < 0 {
		return fmt.Errorf("%w: onset.min_gap_seconds must be >= 0", ErrInvalid)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.ExpectedSampleRate < 0 {
		return fmt.Errorf("%w: ingest.expected_sample_rate must be >= 0", ErrInvalid)
	}
	return nil
}

func (c *Config) validateBlob() error {
	switch c.Blob.Mode {
	case BlobModeMemory, BlobModeFS:
		return nil
	default:
		return fmt.Errorf("%w: blob.mode must be %q or %q, got %q", ErrInvalid, BlobModeMemory, BlobModeFS, c.Blob.Mode)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isKeySafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
