package blob

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-ir/ir"
)

// MaxKeyLength bounds a sanitized key.
const MaxKeyLength = 120

var (
	// ErrNotFound is returned for a key that was never written.
	ErrNotFound = errors.New("blob not found")
	// ErrNoRoot is returned when a filesystem store has no root directory.
	ErrNoRoot = errors.New("filesystem blob store requires a root")
	// ErrCorrupt is returned for a stored array that cannot be decoded.
	ErrCorrupt = errors.New("corrupt blob")
	// ErrUnknownStore is returned for a store mode other than memory or fs.
	ErrUnknownStore = errors.New("unknown blob store")
	// ErrLocked is returned when another store already owns a root.
	ErrLocked = errors.New("blob root is locked by another store")
)

// Array is a dense row-major float32 array.
type Array struct {
	Shape []int     `msgpack:"shape"`
	DType ir.DType  `msgpack:"dtype"`
	Data  []float32 `msgpack:"data"`
}

// NewArray builds an f32 array, checking that shape covers data exactly.
func NewArray(shape []int, data []float32) (Array, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Array{}, fmt.Errorf("negative dimension in shape %v", shape)
		}
		n *= d
	}
	if n != len(data) {
		return Array{}, fmt.Errorf("shape %v holds %d elements, got %d", shape, n, len(data))
	}
	return Array{Shape: slices.Clone(shape), DType: ir.DTypeF32, Data: data}, nil
}

// Size returns the number of elements the shape describes.
func (a Array) Size() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Store persists arrays and hands back a reference to them.
type Store interface {
	// Kind identifies the backend in field references.
	Kind() ir.StoreKind
	// Put stores arr under a key derived from keyHint and returns the
	// reference a document should embed.
	Put(keyHint string, arr Array) (ir.StoreKind, string, error)
	// Get resolves a key returned by Put.
	Get(key string) (Array, error)
	Close() error
}

// Sanitize replaces every character outside [A-Za-z0-9._-] with '_' and
// truncates the result to MaxKeyLength bytes.
func Sanitize(hint string) string {
	var b strings.Builder
	b.Grow(len(hint))
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	key := b.String()
	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}
	return key
}

// Open returns a store for mode. fs requires root. There is no fallback
// between modes.
func Open(mode, root string) (Store, error) {
	switch ir.StoreKind(mode) {
	case ir.StoreMemory:
		return NewMemoryStore(), nil
	case ir.StoreFS:
		return NewFSStore(root)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, mode)
	}
}
