package ir

import (
	"errors"
	"fmt"
	"sort"
)

// ErrFieldConflict is returned by ApplyStrict when a delta field key is
// already present in the document.
var ErrFieldConflict = errors.New("field key already present")

// Delta is a batch of additions produced by one extraction pass.
type Delta struct {
	Fields     map[string]FieldSpec
	Events     []TimedAtom
	Segments   []TimedAtom
	Evidence   []Evidence
	GraphNodes []map[string]any
	GraphEdges []map[string]any
}

// NewDelta returns an empty delta.
func NewDelta() *Delta {
	return &Delta{Fields: map[string]FieldSpec{}}
}

// Empty reports whether the delta adds nothing.
func (d *Delta) Empty() bool {
	return len(d.Fields) == 0 && len(d.Events) == 0 && len(d.Segments) == 0 &&
		len(d.Evidence) == 0 && len(d.GraphNodes) == 0 && len(d.GraphEdges) == 0
}

// Apply returns a new document with the delta added: fields are inserted
// (overwriting an existing key) and every list is extended in order.
// doc itself is left untouched. Applying the same delta twice duplicates
// its list entries.
func Apply(doc *Document, delta *Delta) *Document {
	out := doc.Clone()
	if delta == nil {
		return out
	}
	for k, f := range delta.Fields {
		out.Fields[k] = f
	}
	out.Events = append(out.Events, delta.Events...)
	out.Segments = append(out.Segments, delta.Segments...)
	out.Evidence = append(out.Evidence, delta.Evidence...)
	out.Graph.Nodes = append(out.Graph.Nodes, delta.GraphNodes...)
	out.Graph.Edges = append(out.Graph.Edges, delta.GraphEdges...)
	return out
}

// ApplyStrict is Apply, except that any delta field key already present in
// doc fails the whole application with ErrFieldConflict.
func ApplyStrict(doc *Document, delta *Delta) (*Document, error) {
	if delta != nil {
		var conflicts []string
		for k := range delta.Fields {
			if _, ok := doc.Fields[k]; ok {
				conflicts = append(conflicts, k)
			}
		}
		if len(conflicts) > 0 {
			sort.Strings(conflicts)
			return nil, fmt.Errorf("%w: %v", ErrFieldConflict, conflicts)
		}
	}
	return Apply(doc, delta), nil
}
