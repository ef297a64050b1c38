package blob

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-ir/ir"
)

var allowedKey = regexp.MustCompile(`^[A-Za-z0-9._-]*$`)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want string
	}{
		{"allowed untouched", "mix_stft_1024_h256.v1-a", "mix_stft_1024_h256.v1-a"},
		{"colon and slash", "mix:stft/logmag", "mix_stft_logmag"},
		{"spaces", "a b", "a_b"},
		{"multibyte rune is one char", "é", "_"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.hint)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, allowedKey, got)
		})
	}
}

func TestSanitizeTruncates(t *testing.T) {
	got := Sanitize(strings.Repeat("a/", 100))
	assert.Len(t, got, MaxKeyLength)
	assert.Regexp(t, allowedKey, got)
}

func TestNewArray(t *testing.T) {
	arr, err := NewArray([]int{2, 3}, make([]float32, 6))
	require.NoError(t, err)
	assert.Equal(t, ir.DTypeF32, arr.DType)
	assert.Equal(t, 6, arr.Size())

	_, err = NewArray([]int{2, 3}, make([]float32, 5))
	assert.Error(t, err)
	_, err = NewArray([]int{-1}, nil)
	assert.Error(t, err)
}

func TestMemoryStoreSanitizedRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	arr, err := NewArray([]int{3}, []float32{1, 2, 3})
	require.NoError(t, err)

	hint := "mix:" + strings.Repeat("x/", 80)
	kind, key, err := s.Put(hint, arr)
	require.NoError(t, err)

	assert.Equal(t, ir.StoreMemory, kind)
	assert.Regexp(t, allowedKey, key)
	assert.LessOrEqual(t, len(key), MaxKeyLength)

	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, arr, got)

	_, err = s.Get(hint)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopiesInput(t *testing.T) {
	s := NewMemoryStore()
	data := []float32{1, 2}
	_, key, err := s.Put("k", Array{Shape: []int{2}, DType: ir.DTypeF32, Data: data})
	require.NoError(t, err)

	data[0] = 99
	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got.Data)
	assert.Equal(t, 1, s.Len())
}

func TestFSStoreRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	s, err := NewFSStore(root)
	require.NoError(t, err)
	defer s.Close()

	arr, err := NewArray([]int{2, 2}, []float32{0.5, -1, 2, 3.25})
	require.NoError(t, err)

	kind, key, err := s.Put("mix/stft_1024_h256:logmag", arr)
	require.NoError(t, err)
	assert.Equal(t, ir.StoreFS, kind)
	assert.Equal(t, filepath.Join(root, "mix_stft_1024_h256_logmag.msgpack"), key)

	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, arr, got)

	got, err = ReadArrayFile(key)
	require.NoError(t, err)
	assert.Equal(t, arr.Shape, got.Shape)
}

func TestFSStoreErrors(t *testing.T) {
	_, err := NewFSStore("")
	assert.ErrorIs(t, err, ErrNoRoot)

	root := t.TempDir()
	s, err := NewFSStore(root)
	require.NoError(t, err)

	_, err = NewFSStore(root)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = s.Get(filepath.Join(root, "missing.msgpack"))
	assert.ErrorIs(t, err, ErrNotFound)

	corrupt := filepath.Join(root, "corrupt.msgpack")
	require.NoError(t, os.WriteFile(corrupt, []byte{0xc1}, 0o644))
	_, err = s.Get(corrupt)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, s.Close())

	reopened, err := NewFSStore(root)
	require.NoError(t, err, "lock is released on Close")
	require.NoError(t, reopened.Close())
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.Equal(t, ir.StoreMemory, s.Kind())

	s, err = Open("fs", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ir.StoreFS, s.Kind())
	require.NoError(t, s.Close())

	_, err = Open("fs", "")
	assert.ErrorIs(t, err, ErrNoRoot)

	_, err = Open("s3", "bucket")
	assert.ErrorIs(t, err, ErrUnknownStore)
}

func TestResolver(t *testing.T) {
	mem := NewMemoryStore()
	_, memKey, err := mem.Put("a", Array{Shape: []int{4}, DType: ir.DTypeF32, Data: make([]float32, 4)})
	require.NoError(t, err)

	fsStore, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	defer fsStore.Close()
	_, fsKey, err := fsStore.Put("b", Array{Shape: []int{1, 3}, DType: ir.DTypeF32, Data: make([]float32, 3)})
	require.NoError(t, err)

	r := Resolver{Store: mem}
	shape, err := r.Shape(ir.StoreMemory, memKey)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, shape)

	shape, err = r.Shape(ir.StoreFS, fsKey)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, shape)

	_, err = Resolver{}.Shape(ir.StoreMemory, memKey)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Shape("s3", "x")
	assert.ErrorIs(t, err, ErrUnknownStore)
}
