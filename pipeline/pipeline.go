// Package pipeline wires canonicalization, the IR skeleton, extraction,
// delta application and validation into one ingest call.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-ir/blob"
	"github.com/RyanBlaney/sonido-ir/config"
	"github.com/RyanBlaney/sonido-ir/extract"
	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/logging"
	"github.com/RyanBlaney/sonido-ir/transcode"
)

// Options configures a run. The zero value uses config.Default(), a store
// opened from Config.Blob, the wall clock and the global logger.
type Options struct {
	Config *config.Config
	// Store receives the field arrays. When nil a store is opened from
	// Config.Blob and closed when the run ends.
	Store  blob.Store
	Clock  func() time.Time
	Logger logging.Logger
}

// Result is the output of a successful run.
type Result struct {
	RunID      string
	Document   *ir.Document
	Serialized map[string]any
	Delta      *ir.Delta
}

func (o Options) config() config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return *o.Config
}

// Run builds, extracts, applies and validates the IR for a canonical
// buffer. A validation failure is returned as the *ir.ValidationError and
// no result is produced.
func Run(audio *transcode.AudioData, opts Options) (res *Result, err error) {
	if audio == nil {
		return nil, errors.New("nil audio")
	}
	cfg := opts.config()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := transcode.CheckSampleRate(audio.SampleRate, cfg.Ingest.ExpectedSampleRate); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.Fields{
		"component": "pipeline",
		"run_id":    runID,
	})

	store := opts.Store
	if store == nil {
		store, err = blob.Open(cfg.Blob.Mode, cfg.Blob.Root)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	buildOpts := []ir.BuildOption{ir.WithMeta(map[string]any{"run_id": runID})}
	if opts.Clock != nil {
		buildOpts = append(buildOpts, ir.WithClock(opts.Clock))
	}
	doc, err := ir.NewDocument(audio.PCM, audio.SampleRate, audio.Channels, frameTimebases(cfg), buildOpts...)
	if err != nil {
		return nil, err
	}

	extractor, err := extract.New(cfg, store, extract.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	delta, err := extractor.Run(doc, audio.PCM, audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	doc = ir.Apply(doc, delta)
	serialized, err := doc.ToMap()
	if err != nil {
		return nil, err
	}
	if err := ir.Validate(serialized, ir.WithResolver(blob.Resolver{Store: store})); err != nil {
		logger.Error(err, "Document failed validation")
		return nil, err
	}

	logger.Info("Run completed", logging.Fields{
		"duration_s": doc.Meta.Source.DurationS,
		"fields":     len(doc.Fields),
		"segments":   len(doc.Segments),
		"events":     len(doc.Events),
	})

	return &Result{
		RunID:      runID,
		Document:   doc,
		Serialized: serialized,
		Delta:      delta,
	}, nil
}

// IngestArray canonicalizes an interleaved buffer and runs the pipeline.
func IngestArray[T transcode.Sample](interleaved []T, channels, sampleRate int, opts Options) (*Result, error) {
	cfg := opts.config()
	audio, err := transcode.Canonicalize(interleaved, channels, sampleRate, transcode.Options{
		ExpectedSampleRate: cfg.Ingest.ExpectedSampleRate,
	})
	if err != nil {
		return nil, err
	}
	return Run(audio, opts)
}

// IngestWAVFile decodes a WAV file and runs the pipeline.
func IngestWAVFile(path string, opts Options) (*Result, error) {
	cfg := opts.config()
	audio, err := transcode.DecodeWAVFile(path, transcode.Options{
		ExpectedSampleRate: cfg.Ingest.ExpectedSampleRate,
	})
	if err != nil {
		return nil, err
	}
	return Run(audio, opts)
}

func frameTimebases(cfg config.Config) []ir.FrameTimebase {
	frames := make([]ir.FrameTimebase, len(cfg.Resolutions))
	for i, r := range cfg.Resolutions {
		frames[i] = ir.FrameTimebase{Name: r.Name, Hop: r.Hop, Win: r.Window}
	}
	return frames
}
