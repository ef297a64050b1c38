package blob

import (
	"fmt"

	"github.com/RyanBlaney/sonido-ir/ir"
)

// Resolver resolves field references for validation. fs references are
// read from disk; memory references need the run's own store.
type Resolver struct {
	Store Store
}

// Shape implements ir.ArrayResolver.
func (r Resolver) Shape(kind ir.StoreKind, key string) ([]int, error) {
	arr, err := r.Array(kind, key)
	if err != nil {
		return nil, err
	}
	return arr.Shape, nil
}

// Array returns the referenced array.
func (r Resolver) Array(kind ir.StoreKind, key string) (Array, error) {
	switch kind {
	case ir.StoreFS:
		return ReadArrayFile(key)
	case ir.StoreMemory:
		if r.Store == nil || r.Store.Kind() != ir.StoreMemory {
			return Array{}, fmt.Errorf("%w: memory ref %q outside its owning store", ErrNotFound, key)
		}
		return r.Store.Get(key)
	default:
		return Array{}, fmt.Errorf("%w: %q", ErrUnknownStore, kind)
	}
}
