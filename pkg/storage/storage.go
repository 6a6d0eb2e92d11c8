// Package storage stores document version files on an afero filesystem.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrNotFound is returned when a key has no stored file.
var ErrNotFound = errors.New("file not found in storage")

// Store keeps files under a base path of a filesystem. Keys are generated on
// write and are safe to use as relative paths.
type Store struct {
	fs       afero.Fs
	basePath string
}

// Config contains storage configuration.
type Config struct {
	// Path is the directory files are written to.
	Path string `hcl:"path"`
}

// New returns a Store rooted at basePath on fs.
func New(fs afero.Fs, basePath string) (*Store, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem is required")
	}
	if err := fs.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("error creating storage directory: %w", err)
	}
	return &Store{fs: fs, basePath: basePath}, nil
}

// NewOS returns a Store on the local filesystem.
func NewOS(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path required")
	}
	return New(afero.NewOsFs(), cfg.Path)
}

// Object describes a stored file.
type Object struct {
	Key      string
	Checksum string
	Size     int64
}

// Put writes r to a new key and returns the stored object.
func (s *Store) Put(ctx context.Context, r io.Reader) (*Object, error) {
	key := uuid.New().String()
	path := s.path(key)

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating directory: %w", err)
	}

	f, err := s.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	defer f.Close()

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hash), contextReader{ctx: ctx, r: r})
	if err != nil {
		_ = s.fs.Remove(path)
		return nil, fmt.Errorf("error writing file: %w", err)
	}

	return &Object{
		Key:      key,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
		Size:     n,
	}, nil
}

// Open opens the file stored under key.
func (s *Store) Open(key string) (afero.File, error) {
	f, err := s.fs.Open(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// ReadAll returns the content of the file stored under key.
func (s *Store) ReadAll(key string) ([]byte, error) {
	b, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// Delete removes the file stored under key. Deleting a missing key is not an
// error.
func (s *Store) Delete(key string) error {
	err := s.fs.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether key has a stored file.
func (s *Store) Exists(key string) (bool, error) {
	return afero.Exists(s.fs, s.path(key))
}

// path shards keys by their first two characters.
func (s *Store) path(key string) string {
	shard := "_"
	if len(key) >= 2 {
		shard = key[:2]
	}
	return filepath.Join(s.basePath, shard, filepath.Base(key))
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
