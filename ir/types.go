package ir

import (
	"encoding/json"
	"fmt"
	"slices"
)

// StoreKind names the blob backend a field reference resolves through.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreFS     StoreKind = "fs"
)

// FieldKind describes the storage layout of a field.
type FieldKind string

const (
	FieldNDArray FieldKind = "ndarray"
	FieldSparse  FieldKind = "sparse"
	FieldScalar  FieldKind = "scalar"
)

// DType is the element type of a stored array.
type DType string

const (
	DTypeF32 DType = "f32"
	DTypeF16 DType = "f16"
	DTypeI32 DType = "i32"
	DTypeU8  DType = "u8"
)

// TrackType classifies a track.
type TrackType string

const (
	TrackMixture TrackType = "mixture"
	TrackStem    TrackType = "stem"
	TrackChannel TrackType = "channel"
)

// EvidenceKind classifies what an evidence record points at.
type EvidenceKind string

const (
	EvidenceField      EvidenceKind = "field"
	EvidenceFrameRange EvidenceKind = "frame_range"
	EvidenceTimeRange  EvidenceKind = "time_range"
	EvidenceExemplar   EvidenceKind = "exemplar"
)

// GraphNodeKind classifies a graph node.
type GraphNodeKind string

const (
	NodeEvent   GraphNodeKind = "event"
	NodeSegment GraphNodeKind = "segment"
	NodeEntity  GraphNodeKind = "entity"
	NodeConcept GraphNodeKind = "concept"
)

// MixTrackID is the id of the single mixture track every document carries.
const MixTrackID = "mix"

// SamplesTimebase is the name a field uses to reference the sample timebase.
const SamplesTimebase = "samples"

// Source describes the ingested buffer.
type Source struct {
	SR        int     `json:"sr"`
	Channels  int     `json:"channels"`
	DurationS float64 `json:"duration_s"`
}

// Meta is document metadata. Extra keys are carried through unvalidated.
type Meta struct {
	IRVersion  string         `json:"ir_version"`
	CreatedUTC string         `json:"created_utc"`
	Source     Source         `json:"source"`
	Extra      map[string]any `json:"-"`
}

// SampleTimebase is the native sample clock.
type SampleTimebase struct {
	SR int `json:"sr"`
}

// FrameTimebase is a frame clock produced by a window/hop analysis.
type FrameTimebase struct {
	Name string `json:"name"`
	Hop  int    `json:"hop"`
	Win  int    `json:"win"`
}

// Timebases lists every clock a field may be indexed by.
type Timebases struct {
	Samples SampleTimebase  `json:"samples"`
	Frames  []FrameTimebase `json:"frames"`
}

// Frame returns the frame timebase with the given name.
func (tb Timebases) Frame(name string) (FrameTimebase, bool) {
	for _, f := range tb.Frames {
		if f.Name == name {
			return f, true
		}
	}
	return FrameTimebase{}, false
}

// Track is a logical audio stream within the document.
type Track struct {
	ID     string         `json:"id"`
	Type   TrackType      `json:"type"`
	Parent string         `json:"parent,omitempty"`
	Label  string         `json:"label,omitempty"`
	Extra  map[string]any `json:"-"`
}

// FieldRef locates an array in a blob store.
type FieldRef struct {
	Store StoreKind `json:"store"`
	Key   string    `json:"key"`
}

// FieldSpec describes a dense feature array held outside the document.
type FieldSpec struct {
	Kind     FieldKind      `json:"kind"`
	Shape    []int          `json:"shape"`
	DType    DType          `json:"dtype"`
	Ref      FieldRef       `json:"ref"`
	Timebase string         `json:"timebase,omitempty"`
	Track    string         `json:"track,omitempty"`
	Desc     string         `json:"desc,omitempty"`
	Extra    map[string]any `json:"-"`
}

// TimedAtom is an event (t0 == t1 allowed) or a segment on the timeline.
type TimedAtom struct {
	ID         string         `json:"id"`
	T0         float64        `json:"t0"`
	T1         float64        `json:"t1"`
	Type       string         `json:"type"`
	Confidence float64        `json:"confidence"`
	Track      string         `json:"track"`
	Tags       []string       `json:"tags"`
	Attrs      map[string]any `json:"attrs"`
	Evidence   []string       `json:"evidence"`
}

// Span is a time interval in seconds.
type Span struct {
	T0 float64 `json:"t0"`
	T1 float64 `json:"t1"`
}

// Evidence links a derived item back to the feature data supporting it.
type Evidence struct {
	ID   string       `json:"id"`
	Kind EvidenceKind `json:"kind"`
	Ref  string       `json:"ref"`
	Span Span         `json:"span"`
	Note string       `json:"note"`
}

// Graph holds free-form nodes and edges for later passes.
type Graph struct {
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

// NewGraphNode builds a node map with the reserved keys set.
func NewGraphNode(kind GraphNodeKind, id string, attrs map[string]any) map[string]any {
	node := make(map[string]any, len(attrs)+2)
	for k, v := range attrs {
		node[k] = v
	}
	node["id"] = id
	node["kind"] = string(kind)
	return node
}

// NewGraphEdge builds an edge map with the reserved keys set.
func NewGraphEdge(src, dst, rel string, attrs map[string]any) map[string]any {
	edge := make(map[string]any, len(attrs)+3)
	for k, v := range attrs {
		edge[k] = v
	}
	edge["src"] = src
	edge["dst"] = dst
	edge["rel"] = rel
	return edge
}

// Document is the intermediate representation of one ingested buffer.
type Document struct {
	Meta      Meta                 `json:"meta"`
	Timebases Timebases            `json:"timebases"`
	Tracks    []Track              `json:"tracks"`
	Fields    map[string]FieldSpec `json:"fields"`
	Events    []TimedAtom          `json:"events"`
	Segments  []TimedAtom          `json:"segments"`
	Graph     Graph                `json:"graph"`
	Evidence  []Evidence           `json:"evidence"`
}

// HasTrack reports whether a track with id is declared.
func (d *Document) HasTrack(id string) bool {
	for _, t := range d.Tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

var (
	metaKeys  = []string{"ir_version", "created_utc", "source"}
	trackKeys = []string{"id", "type", "parent", "label"}
	fieldKeys = []string{"kind", "shape", "dtype", "ref", "timebase", "track", "desc"}
)

type metaAlias Meta

// MarshalJSON flattens Extra into the meta object.
func (m Meta) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(metaAlias(m), m.Extra, metaKeys)
}

// UnmarshalJSON captures unknown meta keys into Extra.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var a metaAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := unmarshalExtra(data, metaKeys)
	if err != nil {
		return err
	}
	*m = Meta(a)
	m.Extra = extra
	return nil
}

type trackAlias Track

// MarshalJSON flattens Extra into the track object.
func (t Track) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(trackAlias(t), t.Extra, trackKeys)
}

// UnmarshalJSON captures unknown track keys into Extra.
func (t *Track) UnmarshalJSON(data []byte) error {
	var a trackAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := unmarshalExtra(data, trackKeys)
	if err != nil {
		return err
	}
	*t = Track(a)
	t.Extra = extra
	return nil
}

type fieldAlias FieldSpec

// MarshalJSON flattens Extra into the field object.
func (f FieldSpec) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(fieldAlias(f), f.Extra, fieldKeys)
}

// UnmarshalJSON captures unknown field keys into Extra.
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var a fieldAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := unmarshalExtra(data, fieldKeys)
	if err != nil {
		return err
	}
	*f = FieldSpec(a)
	f.Extra = extra
	return nil
}

// marshalWithExtra encodes v and merges extra into the resulting object.
// Declared keys are never overridden by extra entries.
func marshalWithExtra(v any, extra map[string]any, known []string) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return base, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if slices.Contains(known, k) {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("extra key %q: %w", k, err)
		}
		obj[k] = raw
	}
	return json.Marshal(obj)
}

func unmarshalExtra(data []byte, known []string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(obj, k)
	}
	if len(obj) == 0 {
		return nil, nil
	}
	return obj, nil
}
