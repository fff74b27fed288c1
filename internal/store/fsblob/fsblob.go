// Package fsblob adapts internal/ports.BlobStore onto the local
// filesystem, sharding keys the way the prototype's downloader laid
// out its content-addressed store: a two-character prefix directory
// keeps any one directory from accumulating hundreds of thousands of
// entries as a crawl run grows.
package fsblob

import (
	"context"
	"os"
	"path/filepath"

	"github.com/witto13/bess-crawler/internal/clerrors"
)

// Store persists blobs under BasePath, sharded by the first two
// characters of the key (expected to be a hex sha256 digest).
type Store struct {
	BasePath string
}

// New returns a Store rooted at basePath. basePath is created lazily,
// on first Put.
func New(basePath string) *Store {
	return &Store{BasePath: basePath}
}

func (s *Store) pathFor(key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(s.BasePath, shard, key+".bin")
}

// Put writes data under key, creating any missing shard directory.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	target := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return clerrors.FailedToWithDetails("create blob directory", "fsblob", target, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return clerrors.FailedToWithDetails("write blob", "fsblob", target, err)
	}
	return nil
}

// Get reads the bytes stored under key. The second return value is
// false, with a nil error, when the key has never been written.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	target := s.pathFor(key)
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, clerrors.FailedToWithDetails("read blob", "fsblob", target, err)
	}
	return data, true, nil
}
