package vectorindex

import (
	"testing"

	"doc-qa-be/pkg/chunker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "embed-test-001"

func testChunk(docId uuid.UUID, seq int, text string) chunker.Chunk {
	return chunker.Chunk{
		Id:            chunker.ChunkId(docId, seq),
		DocumentId:    docId,
		SequenceIndex: seq,
		Text:          text,
	}
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	ix := New(testModel, 3)
	docId := uuid.New()

	require.NoError(t, ix.Add(testChunk(docId, 0, "x axis"), []float32{1, 0, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(docId, 1, "y axis"), []float32{0, 1, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(docId, 2, "diagonal"), []float32{1, 1, 0}, testModel))

	hits := ix.Search([]float32{1, 0, 0}, 3)
	require.Len(t, hits, 3)

	assert.Equal(t, "x axis", hits[0].Chunk.Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "diagonal", hits[1].Chunk.Text)
	assert.Equal(t, "y axis", hits[2].Chunk.Text)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestSearchTieBreaksBySequenceIndex(t *testing.T) {
	ix := New(testModel, 2)
	docId := uuid.New()

	// Same vector, so identical scores. Insert out of order to prove the
	// ordering comes from the sequence index, not insertion order.
	require.NoError(t, ix.Add(testChunk(docId, 2, "third"), []float32{1, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(docId, 0, "first"), []float32{1, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(docId, 1, "second"), []float32{1, 0}, testModel))

	hits := ix.Search([]float32{1, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "first", hits[0].Chunk.Text)
	assert.Equal(t, "second", hits[1].Chunk.Text)
	assert.Equal(t, "third", hits[2].Chunk.Text)
}

func TestSearchDefaultsKAndCapsAtSize(t *testing.T) {
	ix := New(testModel, 2)
	docId := uuid.New()
	for i := 0; i < 8; i++ {
		require.NoError(t, ix.Add(testChunk(docId, i, "c"), []float32{1, float32(i)}, testModel))
	}

	assert.Len(t, ix.Search([]float32{1, 0}, 0), 5)
	assert.Len(t, ix.Search([]float32{1, 0}, -3), 5)
	assert.Len(t, ix.Search([]float32{1, 0}, 100), 8)
	assert.Empty(t, New(testModel, 2).Search([]float32{1, 0}, 5))
}

func TestAddRejectsMismatchedModelOrDimension(t *testing.T) {
	ix := New(testModel, 3)
	docId := uuid.New()

	err := ix.Add(testChunk(docId, 0, "c"), []float32{1, 0, 0}, "embed-other-002")
	assert.Error(t, err)

	err = ix.Add(testChunk(docId, 0, "c"), []float32{1, 0}, testModel)
	assert.Error(t, err)

	assert.Equal(t, 0, ix.Len())
}

func TestAddOverwritesByChunkId(t *testing.T) {
	ix := New(testModel, 2)
	docId := uuid.New()

	chunk := testChunk(docId, 0, "old text")
	require.NoError(t, ix.Add(chunk, []float32{1, 0}, testModel))

	chunk.Text = "new text"
	require.NoError(t, ix.Add(chunk, []float32{0, 1}, testModel))

	assert.Equal(t, 1, ix.Len())
	hits := ix.Search([]float32{0, 1}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "new text", hits[0].Chunk.Text)
}

func TestRemoveDocument(t *testing.T) {
	ix := New(testModel, 2)
	keep := uuid.New()
	drop := uuid.New()

	require.NoError(t, ix.Add(testChunk(keep, 0, "keep"), []float32{1, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(drop, 0, "drop a"), []float32{1, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(drop, 1, "drop b"), []float32{0, 1}, testModel))

	assert.Equal(t, 2, ix.RemoveDocument(drop))
	assert.Equal(t, 0, ix.RemoveDocument(drop))
	assert.Equal(t, 1, ix.Len())

	hits := ix.Search([]float32{1, 0}, 5)
	require.Len(t, hits, 1)
	assert.Equal(t, "keep", hits[0].Chunk.Text)
}

func TestEntriesAreSortedForSnapshots(t *testing.T) {
	ix := New(testModel, 2)
	docA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	docB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	require.NoError(t, ix.Add(testChunk(docB, 1, "b1"), []float32{1, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(docA, 1, "a1"), []float32{1, 0}, testModel))
	require.NoError(t, ix.Add(testChunk(docA, 0, "a0"), []float32{1, 0}, testModel))

	entries := ix.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "a0", entries[0].Chunk.Text)
	assert.Equal(t, "a1", entries[1].Chunk.Text)
	assert.Equal(t, "b1", entries[2].Chunk.Text)
}
