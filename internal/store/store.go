// Package store abstracts the remote versioned file store the patch
// engine writes to. Every file carries a content-addressed version
// tag (the blob sha on GitHub); writes and deletes are preconditioned
// on the tag for optimistic concurrency.
package store

import (
	"context"
	"errors"
)

// ErrNotFound signals that the requested path does not exist in the
// store. Callers rely on distinguishing this from other failures, for
// example to degrade a create into an update.
var ErrNotFound = errors.New("file not found")

// ErrVersionConflict signals that a write or delete was rejected
// because the supplied version tag is stale.
var ErrVersionConflict = errors.New("version conflict: file changed since it was read")

// File is one fetched file with its version tag.
type File struct {
	Path    string
	Content string
	SHA     string
}

// Store is the remote file store contract.
type Store interface {
	// Get fetches a file and its version tag. Returns ErrNotFound
	// (possibly wrapped) when the path does not exist.
	Get(ctx context.Context, path string) (*File, error)

	// Put writes content to path and returns the resulting commit id.
	// An empty sha creates the file; a non-empty sha is the
	// optimistic-concurrency precondition for an update and yields
	// ErrVersionConflict when stale.
	Put(ctx context.Context, path, content, sha string) (string, error)

	// Delete removes path, preconditioned on sha, and returns the
	// resulting commit id.
	Delete(ctx context.Context, path, sha string) (string, error)

	// List returns every file path in the tree.
	List(ctx context.Context) ([]string, error)
}
