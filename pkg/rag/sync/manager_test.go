package sync

import (
	"context"
	"testing"

	"doc-qa-be/internal/apperr"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/pkg/blob"
	"doc-qa-be/pkg/chunker"
	"doc-qa-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "embed-test-001"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return NewManager(store, logger.NewNopLogger(), testModel, 3)
}

func populatedIndex(t *testing.T, docId uuid.UUID) *vectorindex.Index {
	t.Helper()
	ix := vectorindex.New(testModel, 3)
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.5, 0.5, 0}}
	for i, v := range vectors {
		chunk := chunker.Chunk{
			Id:            chunker.ChunkId(docId, i),
			DocumentId:    docId,
			SequenceIndex: i,
			Text:          "chunk " + string(rune('a'+i)),
			CharStart:     i * 10,
			CharEnd:       i*10 + 7,
		}
		require.NoError(t, ix.Add(chunk, v, testModel))
	}
	return ix
}

func TestRestoreMissingSnapshotReturnsEmptyIndexAtVersionZero(t *testing.T) {
	m := newTestManager(t)

	ix, version, err := m.Restore(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, testModel, ix.ModelVersion())
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	collectionId := uuid.New()
	docId := uuid.New()

	original := populatedIndex(t, docId)
	require.NoError(t, m.Persist(ctx, collectionId, original, 1))

	restored, version, err := m.Restore(ctx, collectionId)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, original.Len(), restored.Len())

	// The restored index must answer searches identically to the original,
	// including chunk metadata carried for citations.
	query := []float32{1, 0, 0}
	want := original.Search(query, 3)
	got := restored.Search(query, 3)
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].Chunk, got[i].Chunk)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-9)
	}
}

func TestPersistStaleVersionMapsToAppError(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	collectionId := uuid.New()
	ix := populatedIndex(t, uuid.New())

	require.NoError(t, m.Persist(ctx, collectionId, ix, 2))

	// A writer that read version 1 and tries to land version 2 again lost
	// the race and must re-read-modify-write.
	err := m.Persist(ctx, collectionId, ix, 2)
	assert.ErrorIs(t, err, apperr.ErrStaleVersion)

	err = m.Persist(ctx, collectionId, ix, 1)
	assert.ErrorIs(t, err, apperr.ErrStaleVersion)

	// A strictly greater version still lands.
	assert.NoError(t, m.Persist(ctx, collectionId, ix, 3))
}

func TestRestoreForeignModelSnapshotDropsVectorsKeepsVersion(t *testing.T) {
	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	collectionId := uuid.New()

	// Persist with one model, restore with another: the snapshot must not
	// leak embeddings across model versions, but its version still counts,
	// otherwise the replacing write could never beat the stored one.
	writer := NewManager(store, logger.NewNopLogger(), "embed-old-000", 3)
	oldIx := vectorindex.New("embed-old-000", 3)
	docId := uuid.New()
	require.NoError(t, oldIx.Add(chunker.Chunk{
		Id:            chunker.ChunkId(docId, 0),
		DocumentId:    docId,
		SequenceIndex: 0,
		Text:          "old-model chunk",
	}, []float32{1, 0, 0}, "embed-old-000"))
	require.NoError(t, writer.Persist(ctx, collectionId, oldIx, 4))

	reader := NewManager(store, logger.NewNopLogger(), testModel, 3)
	ix, version, err := reader.Restore(ctx, collectionId)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, testModel, ix.ModelVersion())
}

func TestReingestAfterModelChangeSupersedesOldSnapshot(t *testing.T) {
	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	collectionId := uuid.New()
	docId := uuid.New()

	// A collection ingested several times under the old model.
	oldManager := NewManager(store, logger.NewNopLogger(), "embed-old-000", 3)
	oldIx := vectorindex.New("embed-old-000", 3)
	require.NoError(t, oldIx.Add(chunker.Chunk{
		Id:            chunker.ChunkId(docId, 0),
		DocumentId:    docId,
		SequenceIndex: 0,
		Text:          "old-model chunk",
	}, []float32{1, 0, 0}, "embed-old-000"))
	require.NoError(t, oldManager.Persist(ctx, collectionId, oldIx, 5))

	// Re-ingest under the new model: restore, rebuild, persist at version+1
	// must land on the first attempt.
	newManager := NewManager(store, logger.NewNopLogger(), testModel, 3)
	ix, version, err := newManager.Restore(ctx, collectionId)
	require.NoError(t, err)
	require.Equal(t, int64(5), version)

	ix.RemoveDocument(docId)
	require.NoError(t, ix.Add(chunker.Chunk{
		Id:            chunker.ChunkId(docId, 0),
		DocumentId:    docId,
		SequenceIndex: 0,
		Text:          "re-embedded chunk",
	}, []float32{0, 1, 0}, testModel))
	require.NoError(t, newManager.Persist(ctx, collectionId, ix, version+1))

	restored, version, err := newManager.Restore(ctx, collectionId)
	require.NoError(t, err)
	assert.Equal(t, int64(6), version)
	require.Equal(t, 1, restored.Len())
	hits := restored.Search([]float32{0, 1, 0}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "re-embedded chunk", hits[0].Chunk.Text)
}

func TestDeleteRemovesSnapshot(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	collectionId := uuid.New()

	require.NoError(t, m.Persist(ctx, collectionId, populatedIndex(t, uuid.New()), 1))
	require.NoError(t, m.Delete(ctx, collectionId))

	ix, version, err := m.Restore(ctx, collectionId)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
	assert.Equal(t, 0, ix.Len())
}

func TestReingestReplaceThenPersist(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	collectionId := uuid.New()
	docId := uuid.New()

	require.NoError(t, m.Persist(ctx, collectionId, populatedIndex(t, docId), 1))

	// Replace the document with a single new chunk, the way re-upload does:
	// restore, purge the document, add, persist at version+1.
	ix, version, err := m.Restore(ctx, collectionId)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.RemoveDocument(docId))

	replacement := chunker.Chunk{
		Id:            chunker.ChunkId(docId, 0),
		DocumentId:    docId,
		SequenceIndex: 0,
		Text:          "replacement chunk",
	}
	require.NoError(t, ix.Add(replacement, []float32{0, 0, 1}, testModel))
	require.NoError(t, m.Persist(ctx, collectionId, ix, version+1))

	restored, version, err := m.Restore(ctx, collectionId)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	require.Equal(t, 1, restored.Len())
	hits := restored.Search([]float32{0, 0, 1}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "replacement chunk", hits[0].Chunk.Text)
}
