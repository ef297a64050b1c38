package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Id prefixes used by the extractor.
const (
	PrefixEvidence = "evid"
	PrefixSegment  = "seg"
	PrefixEvent    = "evt"
)

// IDAllocator hands out sequential "<prefix>_%06d" ids. It is owned by one
// run and is not safe for concurrent use.
type IDAllocator struct {
	next map[string]int
}

// NewIDAllocator returns an allocator that continues after every
// "<prefix>_<n>" id already present in doc, so a later pass never reuses
// an id. doc may be nil.
func NewIDAllocator(doc *Document) *IDAllocator {
	a := &IDAllocator{next: map[string]int{}}
	if doc == nil {
		return a
	}
	for _, e := range doc.Events {
		a.observe(e.ID)
	}
	for _, s := range doc.Segments {
		a.observe(s.ID)
	}
	for _, e := range doc.Evidence {
		a.observe(e.ID)
	}
	return a
}

// Next returns the next id for prefix.
func (a *IDAllocator) Next(prefix string) string {
	n := a.next[prefix]
	a.next[prefix] = n + 1
	return fmt.Sprintf("%s_%06d", prefix, n)
}

func (a *IDAllocator) observe(id string) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 {
		return
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return
	}
	prefix := id[:i]
	if n+1 > a.next[prefix] {
		a.next[prefix] = n + 1
	}
}

// Ledger records evidence into a pending delta.
type Ledger struct {
	ids   *IDAllocator
	delta *Delta
}

// NewLedger returns a ledger appending to delta with ids from ids.
func NewLedger(ids *IDAllocator, delta *Delta) *Ledger {
	return &Ledger{ids: ids, delta: delta}
}

// Record appends one evidence record and returns its id.
func (l *Ledger) Record(kind EvidenceKind, ref string, t0, t1 float64, note string) string {
	id := l.ids.Next(PrefixEvidence)
	l.delta.Evidence = append(l.delta.Evidence, Evidence{
		ID:   id,
		Kind: kind,
		Ref:  ref,
		Span: Span{T0: t0, T1: t1},
		Note: note,
	})
	return id
}
