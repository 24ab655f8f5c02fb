// Package storage implements the content store for accepted images: a
// local-disk layout addressed by record id, with a staging area so a
// file can be written before its metadata exists and reclaimed if the
// ingest never completes.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// ErrStorageFailure marks I/O errors from the content store. Callers
// test with errors.Is.
var ErrStorageFailure = errors.New("storage failure")

const (
	stagingDirName = ".staging"
	imageExt       = ".jpg"
)

// Handle identifies a staged-but-not-committed entry. Opaque outside
// this package.
type Handle string

// LocalStore stores image content under <root>, one file per record id.
// Staged entries live in <root>/.staging until committed or discarded.
// All state lives on disk, so the store carries no per-entry memory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the store rooted at dir, creating the directory
// layout when missing.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, stagingDirName), 0750); err != nil {
		return nil, errors.Wrapf(ErrStorageFailure, "failed to create store layout: %v", err)
	}
	return &LocalStore{root: dir}, nil
}

// Stage writes the image bytes into the staging area and returns an
// opaque handle. A staged entry is invisible to readers and safe to
// discard at any time.
func (s *LocalStore) Stage(_ context.Context, data []byte) (Handle, error) {
	handle := Handle(shortuuid.New())
	if err := os.WriteFile(s.stagingPath(handle), data, 0640); err != nil {
		return "", errors.Wrapf(ErrStorageFailure, "failed to stage image: %v", err)
	}
	return handle, nil
}

// Commit promotes a staged entry to its final location <root>/<id>.jpg
// and returns that path. Commit is idempotent for a given handle: once
// the staged file has been renamed away, a repeat commit finds the
// target in place and succeeds without retaining any in-memory record.
func (s *LocalStore) Commit(_ context.Context, handle Handle, id string) (string, error) {
	target := filepath.Join(s.root, id+imageExt)
	if err := os.Rename(s.stagingPath(handle), target); err != nil {
		if os.IsNotExist(err) {
			if _, statErr := os.Stat(target); statErr == nil {
				return target, nil
			}
		}
		return "", errors.Wrapf(ErrStorageFailure, "failed to commit staged image: %v", err)
	}
	return target, nil
}

// Discard removes a staged entry. Discarding an unknown or already
// committed handle is a no-op: a committed entry's staged file no
// longer exists, so only the committed copy survives.
func (s *LocalStore) Discard(_ context.Context, handle Handle) error {
	if err := os.Remove(s.stagingPath(handle)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(ErrStorageFailure, "failed to discard staged image: %v", err)
	}
	return nil
}

// Read returns the committed content for a record id.
func (s *LocalStore) Read(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, errors.Wrapf(ErrStorageFailure, "failed to read image %s: %v", id, err)
	}
	return data, nil
}

// Remove deletes the committed content for a record id. Used for
// best-effort cleanup when a metadata write fails after commit.
func (s *LocalStore) Remove(_ context.Context, id string) error {
	if err := os.Remove(s.Path(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(ErrStorageFailure, "failed to remove image %s: %v", id, err)
	}
	return nil
}

// Path returns the committed location for a record id. No two ids share
// a path.
func (s *LocalStore) Path(id string) string {
	return filepath.Join(s.root, id+imageExt)
}

// SweepStale removes staged entries older than maxAge and returns how
// many were reclaimed. Used by the background sweeper so abandoned
// ingests do not accumulate files.
func (s *LocalStore) SweepStale(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, stagingDirName))
	if err != nil {
		return 0, errors.Wrapf(ErrStorageFailure, "failed to list staging dir: %v", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return removed, ctx.Err()
		default:
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, stagingDirName, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *LocalStore) stagingPath(handle Handle) string {
	return filepath.Join(s.root, stagingDirName, string(handle)+imageExt)
}
