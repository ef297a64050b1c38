package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/logging"
)

// LockFileName is the advisory lock an FSStore holds inside its root.
const LockFileName = ".sonido.lock"

// FileExtension is appended to every sanitized key on disk.
const FileExtension = ".msgpack"

// FSStore writes each array to <root>/<key>.msgpack and returns the file
// path as the key. The root is held under an exclusive advisory lock until
// Close.
type FSStore struct {
	root   string
	lock   *flock.Flock
	logger logging.Logger
}

// NewFSStore creates root if needed and takes its lock.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}

	lockPath := filepath.Join(root, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}

	return &FSStore{
		root: root,
		lock: lock,
		logger: logging.WithFields(logging.Fields{
			"component": "fs_blob_store",
			"root":      root,
		}),
	}, nil
}

func (s *FSStore) Kind() ir.StoreKind {
	return ir.StoreFS
}

// Root returns the store directory.
func (s *FSStore) Root() string {
	return s.root
}

// Put writes arr atomically and returns its path.
func (s *FSStore) Put(keyHint string, arr Array) (ir.StoreKind, string, error) {
	path := filepath.Join(s.root, Sanitize(keyHint)+FileExtension)

	data, err := msgpack.Marshal(&arr)
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Debug("Stored array", logging.Fields{
		"path":  path,
		"shape": arr.Shape,
		"bytes": len(data),
	})

	return ir.StoreFS, path, nil
}

// Get reads the array at the path key.
func (s *FSStore) Get(key string) (Array, error) {
	return ReadArrayFile(key)
}

// Close releases the root lock.
func (s *FSStore) Close() error {
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// ReadArrayFile decodes an array written by an FSStore. Consumers can
// resolve fs references with it without opening a store.
func ReadArrayFile(path string) (Array, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Array{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Array{}, err
	}

	var arr Array
	if err := msgpack.Unmarshal(data, &arr); err != nil {
		return Array{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if arr.Size() != len(arr.Data) {
		return Array{}, fmt.Errorf("%w: %s: shape %v does not match %d elements",
			ErrCorrupt, path, arr.Shape, len(arr.Data))
	}
	return arr, nil
}
