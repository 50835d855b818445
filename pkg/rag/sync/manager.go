package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-qa-be/internal/apperr"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/pkg/blob"
	"doc-qa-be/pkg/vectorindex"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// Manager bridges an in-process vector index to durable blob storage.
// Compute instances are stateless and may be recycled between requests, so
// the durable snapshot is the cross-instance source of truth; the versioned
// put is the only cross-instance synchronization primitive.
type Manager struct {
	store        blob.Store
	log          logger.ILogger
	modelVersion string
	dimension    int
	maxAttempts  uint
}

func NewManager(store blob.Store, log logger.ILogger, modelVersion string, dimension int) *Manager {
	return &Manager{
		store:        store,
		log:          log,
		modelVersion: modelVersion,
		dimension:    dimension,
		maxAttempts:  3,
	}
}

func snapshotKey(collectionId uuid.UUID) string {
	return "collections/" + collectionId.String()
}

// Restore fetches the latest durable snapshot for the collection. Returns an
// empty index at version 0 when no snapshot exists; safe to call concurrently
// from multiple instances (pure read). A snapshot embedded with a different
// model version yields an empty index but keeps the stored version: mixing
// model versions in one index is never allowed, and the re-ingest that
// replaces the stale snapshot must still win the version check against it.
func (m *Manager) Restore(ctx context.Context, collectionId uuid.UUID) (*vectorindex.Index, int64, error) {
	obj, err := m.retryGet(ctx, snapshotKey(collectionId))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return vectorindex.New(m.modelVersion, m.dimension), 0, nil
		}
		return nil, 0, fmt.Errorf("restore collection %s: %w", collectionId, err)
	}

	index, version, err := decodeSnapshot(obj.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("restore collection %s: %w", collectionId, err)
	}

	if index.ModelVersion() != m.modelVersion {
		m.log.Warn("sync", "Snapshot embedding model differs from configured model, discarding its vectors", map[string]interface{}{
			"collection_id":  collectionId.String(),
			"snapshot_model": index.ModelVersion(),
			"current_model":  m.modelVersion,
			"version":        version,
		})
		return vectorindex.New(m.modelVersion, m.dimension), version, nil
	}

	m.log.Info("sync", "Restored collection snapshot", map[string]interface{}{
		"collection_id": collectionId.String(),
		"version":       version,
		"chunks":        index.Len(),
	})
	return index, version, nil
}

// Persist uploads a snapshot tagged with version. The write succeeds only if
// version is strictly greater than the durably stored version; otherwise the
// caller gets ErrStaleVersion and must re-read-modify-write.
func (m *Manager) Persist(ctx context.Context, collectionId uuid.UUID, index *vectorindex.Index, version int64) error {
	data, err := encodeSnapshot(collectionId, index, version)
	if err != nil {
		return fmt.Errorf("persist collection %s: %w", collectionId, err)
	}

	if err := m.retryPut(ctx, snapshotKey(collectionId), data, version); err != nil {
		if errors.Is(err, blob.ErrPreconditionFailed) {
			return apperr.Wrap(apperr.ErrStaleVersion, err)
		}
		return fmt.Errorf("persist collection %s: %w", collectionId, err)
	}

	m.log.Info("sync", "Persisted collection snapshot", map[string]interface{}{
		"collection_id": collectionId.String(),
		"version":       version,
		"chunks":        index.Len(),
		"bytes":         len(data),
	})
	return nil
}

// Delete removes the durable snapshot. The only path by which a collection's
// persisted state disappears.
func (m *Manager) Delete(ctx context.Context, collectionId uuid.UUID) error {
	if err := m.store.Delete(ctx, snapshotKey(collectionId)); err != nil {
		return fmt.Errorf("delete collection %s: %w", collectionId, err)
	}
	m.log.Info("sync", "Deleted collection snapshot", map[string]interface{}{
		"collection_id": collectionId.String(),
	})
	return nil
}

func (m *Manager) retryGet(ctx context.Context, key string) (*blob.Object, error) {
	return backoff.Retry(ctx, func() (*blob.Object, error) {
		obj, err := m.store.Get(ctx, key)
		if errors.Is(err, blob.ErrNotFound) {
			// Absence is a result, not a transient fault.
			return nil, backoff.Permanent(err)
		}
		return obj, err
	},
		backoff.WithBackOff(newExpo()),
		backoff.WithMaxTries(m.maxAttempts),
	)
}

func (m *Manager) retryPut(ctx context.Context, key string, data []byte, version int64) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := m.store.Put(ctx, key, data, version)
		if errors.Is(err, blob.ErrPreconditionFailed) {
			// Retrying the identical write can never succeed; the caller
			// must re-restore first.
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(newExpo()),
		backoff.WithMaxTries(m.maxAttempts),
	)
	return err
}

func newExpo() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	return expo
}
