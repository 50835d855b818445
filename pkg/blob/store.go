package blob

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no object exists under the key.
	ErrNotFound = errors.New("blob not found")

	// ErrPreconditionFailed means the versioned put lost to a newer write.
	ErrPreconditionFailed = errors.New("blob version precondition failed")
)

// Object is a stored blob together with the version it was written at.
type Object struct {
	Data    []byte
	Version int64
}

// Store is durable blob storage with optimistic concurrency. Put succeeds
// only if version is strictly greater than the stored version, so two
// writers racing from the same base can never both land: the loser gets
// ErrPreconditionFailed and must re-read-modify-write. A put either fully
// lands or not at all.
type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, data []byte, version int64) error
	Delete(ctx context.Context, key string) error
}
