// Package extract runs the deterministic feature, segment and event passes
// over a canonical buffer and returns the additions as an IR delta.
package extract

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-ir/algorithms/spectral"
	"github.com/RyanBlaney/sonido-ir/algorithms/temporal"
	"github.com/RyanBlaney/sonido-ir/blob"
	"github.com/RyanBlaney/sonido-ir/config"
	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/logging"
)

// Atom types emitted by the extractor.
const (
	SegmentNonSilence = "non_silence"
	EventOnset        = "onset"
)

// SegmentConfidence is the fixed confidence of an activity segment.
const SegmentConfidence = 0.6

// OnsetEvidenceHalfWidth is the half-width in seconds of the window cited as
// evidence for an onset.
const OnsetEvidenceHalfWidth = 0.02

// Extractor derives fields, segments and events for every configured
// resolution. An Extractor may be reused across runs but not concurrently.
type Extractor struct {
	cfg    config.Config
	store  blob.Store
	stft   *spectral.STFT
	onsets *temporal.OnsetDetection
	logger logging.Logger
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithLogger replaces the extractor's logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New validates cfg and returns an extractor that writes arrays to store.
func New(cfg config.Config, store blob.Store, opts ...Option) (*Extractor, error) {
	if store == nil {
		return nil, errors.New("extractor requires a blob store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{
		cfg:    cfg,
		store:  store,
		stft:   spectral.NewSTFT(),
		onsets: temporal.NewOnsetDetection(),
		logger: logging.WithFields(logging.Fields{
			"component": "extractor",
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// runState is the per-run id allocator, delta and evidence ledger.
type runState struct {
	ids    *ir.IDAllocator
	delta  *ir.Delta
	ledger *ir.Ledger
}

// Run analyses samples at every configured resolution, in order, and
// returns the additions. doc is read only: it seeds id allocation and must
// declare the mix track. Arrays are written to the store as a side effect.
func (e *Extractor) Run(doc *ir.Document, samples []float32, sampleRate int) (*ir.Delta, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if !doc.HasTrack(ir.MixTrackID) {
		return nil, fmt.Errorf("document has no %q track", ir.MixTrackID)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	logger := e.logger.WithFields(logging.Fields{
		"function":    "Run",
		"samples":     len(samples),
		"sample_rate": sampleRate,
	})

	ids := ir.NewIDAllocator(doc)
	delta := ir.NewDelta()
	st := &runState{
		ids:    ids,
		delta:  delta,
		ledger: ir.NewLedger(ids, delta),
	}

	for _, res := range e.cfg.Resolutions {
		features, err := e.analyze(res, samples, sampleRate, st)
		if err != nil {
			return nil, fmt.Errorf("resolution %s: %w", res.Name, err)
		}
		e.segmentActivity(features, st)
		e.detectOnsets(features, st)
	}

	logger.Info("Extraction completed", logging.Fields{
		"fields":   len(delta.Fields),
		"segments": len(delta.Segments),
		"events":   len(delta.Events),
		"evidence": len(delta.Evidence),
	})

	return delta, nil
}
