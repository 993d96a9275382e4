package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
)

const tempPrefix = "put-"

// FileStore persists one file per cache key under a root directory.
// File names are derived from a SHA-256 of the key, which avoids both
// filename collisions and illegal-character issues. Writes go to a
// temporary file first and are renamed into place, so a crash mid-write
// never leaves a truncated entry visible to readers.
//
// Entries are msgpack-encoded and snappy-compressed on disk. A file
// that cannot be read or decoded is treated as not found and removed.
type FileStore struct {
	root string
}

// NewFileStore creates a filesystem store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create cache root: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// entryPath maps a key to its file path. The first two hex digits
// become a fan-out directory so large caches do not pile every entry
// into a single directory.
func (f *FileStore) entryPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(f.root, name[:2], name[2:])
}

func (f *FileStore) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.readEntry(f.entryPath(key))
}

// readEntry loads and decodes a single entry file. Corrupt or
// unreadable files are purged and reported as ErrNotFound so a bad
// entry can never fail a request.
func (f *FileStore) readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		os.Remove(path)
		return nil, ErrNotFound
	}
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		os.Remove(path)
		return nil, ErrNotFound
	}
	entry, err := Decode(decompressed)
	if err != nil {
		os.Remove(path)
		return nil, ErrNotFound
	}
	return entry, nil
}

func (f *FileStore) Put(ctx context.Context, key string, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(entry)
	if err != nil {
		return fmt.Errorf("storage: encode entry: %w", err)
	}
	path := f.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: create entry dir: %w", err)
	}
	tempfile, err := os.CreateTemp(f.root, tempPrefix)
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	if _, err := tempfile.Write(snappy.Encode(nil, data)); err != nil {
		tempfile.Close()
		os.Remove(tempfile.Name())
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tempfile.Close(); err != nil {
		os.Remove(tempfile.Name())
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Rename(tempfile.Name(), path); err != nil {
		os.Remove(tempfile.Name())
		return fmt.Errorf("storage: rename into place: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.entryPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete entry: %w", err)
	}
	return nil
}

// Scan walks every entry file and calls fn for entries whose key has
// the given prefix. File names are hashes, so the key prefix can only
// be checked after decoding; unreadable files are skipped.
func (f *FileStore) Scan(ctx context.Context, prefix string, fn func(entry *Entry) bool) error {
	stop := fmt.Errorf("storage: scan stopped")
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		entry, err := f.readEntry(path)
		if err != nil {
			return nil
		}
		if !strings.HasPrefix(entry.Key, prefix) {
			return nil
		}
		if !fn(entry) {
			return stop
		}
		return nil
	})
	if err == stop {
		return nil
	}
	return err
}
