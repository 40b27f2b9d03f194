// Package blobstore provides the storage drivers behind the sync server's
// single shared blob cell. The whole aggregate is one opaque JSON value; there
// is no partitioning, no versioning and no TTL.
package blobstore

import "context"

// BlobStore is a single mutable cell holding the aggregate blob
type BlobStore interface {
	// Get returns the stored blob, or nil when nothing has been stored yet
	Get(ctx context.Context) ([]byte, error)
	// Set fully replaces the stored blob
	Set(ctx context.Context, data []byte) error
	Close() error
}
