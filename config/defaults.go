package config

// Blob store modes.
const (
	BlobModeMemory = "memory"
	BlobModeFS     = "fs"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Resolutions: []Resolution{
			{Name: "stft_1024_h256", Window: 1024, Hop: 256},
			{Name: "stft_4096_h1024", Window: 4096, Hop: 1024},
		},
		Activity: Activity{
			ThresholdDB:   -45.0,
			MinOnSeconds:  0.10,
			MinOffSeconds: 0.10,
		},
		Onset: Onset{
			ZThreshold:    2.5,
			MinGapSeconds: 0.05,
		},
		Blob: Blob{
			Mode: BlobModeMemory,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}
