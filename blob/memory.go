package blob

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-ir/ir"
)

// MemoryStore keeps arrays in a process-local map. It belongs to a single
// run and is not safe for concurrent use.
type MemoryStore struct {
	arrays map[string]Array
}

// NewMemoryStore returns an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{arrays: map[string]Array{}}
}

func (s *MemoryStore) Kind() ir.StoreKind {
	return ir.StoreMemory
}

// Put copies arr into the store under the sanitized hint. A later Put with
// the same hint replaces the earlier array.
func (s *MemoryStore) Put(keyHint string, arr Array) (ir.StoreKind, string, error) {
	key := Sanitize(keyHint)
	s.arrays[key] = Array{
		Shape: slices.Clone(arr.Shape),
		DType: arr.DType,
		Data:  slices.Clone(arr.Data),
	}
	return ir.StoreMemory, key, nil
}

func (s *MemoryStore) Get(key string) (Array, error) {
	arr, ok := s.arrays[key]
	if !ok {
		return Array{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return arr, nil
}

// Len returns the number of stored arrays.
func (s *MemoryStore) Len() int {
	return len(s.arrays)
}

func (s *MemoryStore) Close() error {
	return nil
}
