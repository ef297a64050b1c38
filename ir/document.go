package ir

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Version is the IR schema version this package writes and validates.
const Version = "0.1"

// ErrUnsupportedVersion is returned for documents carrying a different
// meta.ir_version.
var ErrUnsupportedVersion = errors.New("unsupported ir version")

// CheckVersion verifies the serialized document declares Version.
func CheckVersion(doc map[string]any) error {
	meta, _ := doc["meta"].(map[string]any)
	v, _ := meta["ir_version"].(string)
	if v != Version {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, v)
	}
	return nil
}

type buildOptions struct {
	clock func() time.Time
	meta  map[string]any
}

// BuildOption customises NewDocument.
type BuildOption func(*buildOptions)

// WithClock overrides the clock used for meta.created_utc.
func WithClock(clock func() time.Time) BuildOption {
	return func(o *buildOptions) {
		o.clock = clock
	}
}

// WithMeta adds extra, unvalidated metadata keys.
func WithMeta(extra map[string]any) BuildOption {
	return func(o *buildOptions) {
		if o.meta == nil {
			o.meta = make(map[string]any, len(extra))
		}
		maps.Copy(o.meta, extra)
	}
}

// NewDocument builds the initial IR for a canonical mono buffer: metadata,
// the sample timebase, the given frame timebases in order, one mixture track
// and empty containers.
func NewDocument(samples []float32, sampleRate, channels int, frames []FrameTimebase, opts ...BuildOption) (*Document, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("channel count must be at least 1, got %d", channels)
	}

	o := buildOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Document{
		Meta: Meta{
			IRVersion:  Version,
			CreatedUTC: o.clock().UTC().Format(time.RFC3339Nano),
			Source: Source{
				SR:        sampleRate,
				Channels:  channels,
				DurationS: float64(len(samples)) / float64(sampleRate),
			},
			Extra: o.meta,
		},
		Timebases: Timebases{
			Samples: SampleTimebase{SR: sampleRate},
			Frames:  cloneNonNil(frames),
		},
		Tracks:   []Track{{ID: MixTrackID, Type: TrackMixture}},
		Fields:   map[string]FieldSpec{},
		Events:   []TimedAtom{},
		Segments: []TimedAtom{},
		Graph: Graph{
			Nodes: []map[string]any{},
			Edges: []map[string]any{},
		},
		Evidence: []Evidence{},
	}, nil
}

// Clone copies the document containers. Records are copied by value; their
// nested maps and slices are shared.
func (d *Document) Clone() *Document {
	out := *d
	out.Meta.Extra = maps.Clone(d.Meta.Extra)
	out.Timebases.Frames = cloneNonNil(d.Timebases.Frames)
	out.Tracks = cloneNonNil(d.Tracks)
	out.Fields = maps.Clone(d.Fields)
	if out.Fields == nil {
		out.Fields = map[string]FieldSpec{}
	}
	out.Events = cloneNonNil(d.Events)
	out.Segments = cloneNonNil(d.Segments)
	out.Evidence = cloneNonNil(d.Evidence)
	out.Graph = Graph{
		Nodes: cloneNonNil(d.Graph.Nodes),
		Edges: cloneNonNil(d.Graph.Edges),
	}
	return &out
}

func cloneNonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return slices.Clone(s)
}
