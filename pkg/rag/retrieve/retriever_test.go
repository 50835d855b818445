package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/pkg/blob"
	"doc-qa-be/pkg/chunker"
	"doc-qa-be/pkg/rag/cache"
	ragsync "doc-qa-be/pkg/rag/sync"
	"doc-qa-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "embed-test-001"

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			return nil, errors.New("no vector stubbed for text: " + text)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) ModelVersion() string { return testModel }
func (f *fakeEmbedder) Dimension() int       { return 3 }

type fakeRebuilder struct {
	index   *vectorindex.Index
	version int64
	ok      bool
	calls   int
}

func (f *fakeRebuilder) Rebuild(ctx context.Context, collectionId uuid.UUID) (*vectorindex.Index, int64, bool, error) {
	f.calls++
	return f.index, f.version, f.ok, nil
}

type retrieverFixture struct {
	retriever *Retriever
	manager   *ragsync.Manager
	cache     *cache.IndexCache
	store     *blob.FSStore
	rebuilder *fakeRebuilder
}

func newFixture(t *testing.T, embedder *fakeEmbedder, rebuilder *fakeRebuilder, config Config) *retrieverFixture {
	t.Helper()
	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)

	log := logger.NewNopLogger()
	manager := ragsync.NewManager(store, log, testModel, 3)
	indexCache := cache.NewIndexCache(time.Minute)

	return &retrieverFixture{
		retriever: NewRetriever(manager, indexCache, embedder, rebuilder, log, config),
		manager:   manager,
		cache:     indexCache,
		store:     store,
		rebuilder: rebuilder,
	}
}

func indexWithVectors(t *testing.T, docId uuid.UUID, vectors [][]float32) *vectorindex.Index {
	t.Helper()
	ix := vectorindex.New(testModel, 3)
	for i, v := range vectors {
		require.NoError(t, ix.Add(chunker.Chunk{
			Id:            chunker.ChunkId(docId, i),
			DocumentId:    docId,
			SequenceIndex: i,
			Text:          "chunk " + string(rune('a'+i)),
		}, v, testModel))
	}
	return ix
}

func TestRetrieveUnknownCollectionReportsNoIndex(t *testing.T) {
	f := newFixture(t, &fakeEmbedder{}, &fakeRebuilder{}, DefaultConfig())

	result, err := f.retriever.Retrieve(context.Background(), uuid.New(), "anything")
	require.NoError(t, err)
	assert.False(t, result.IndexFound)
	assert.Empty(t, result.Chunks)
}

func TestRetrieveFiltersBelowThresholdAndCapsTopK(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"what is the deadline": {1, 0, 0},
	}}
	config := Config{TopK: 2, FetchK: 10, ScoreThreshold: 0.35}
	f := newFixture(t, embedder, &fakeRebuilder{}, config)

	ctx := context.Background()
	collectionId := uuid.New()
	docId := uuid.New()
	ix := indexWithVectors(t, docId, [][]float32{
		{1, 0, 0},      // similarity 1.0
		{0.9, 0.4, 0},  // high similarity
		{0.5, 0.8, 0},  // above threshold but crowded out by TopK
		{0, 1, 0},      // similarity 0, below threshold
	})
	require.NoError(t, f.manager.Persist(ctx, collectionId, ix, 1))

	result, err := f.retriever.Retrieve(ctx, collectionId, "what is the deadline")
	require.NoError(t, err)
	assert.True(t, result.IndexFound)
	require.Len(t, result.Chunks, 2)

	assert.Equal(t, 0, result.Chunks[0].Chunk.SequenceIndex)
	assert.Equal(t, 1, result.Chunks[1].Chunk.SequenceIndex)
	assert.Greater(t, result.Chunks[0].Score, result.Chunks[1].Score)
	for _, rc := range result.Chunks {
		assert.GreaterOrEqual(t, rc.Score, config.ScoreThreshold)
	}
}

func TestRetrieveEmptyIndexMeansInsufficientContextNotMissing(t *testing.T) {
	f := newFixture(t, &fakeEmbedder{}, &fakeRebuilder{}, DefaultConfig())
	ctx := context.Background()
	collectionId := uuid.New()

	// A persisted but empty index (all documents deleted) is still "found".
	require.NoError(t, f.manager.Persist(ctx, collectionId, vectorindex.New(testModel, 3), 1))

	result, err := f.retriever.Retrieve(ctx, collectionId, "anything")
	require.NoError(t, err)
	assert.True(t, result.IndexFound)
	assert.Empty(t, result.Chunks)
}

func TestRetrieveRebuildsFromChunkRowsWhenSnapshotMissing(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"q": {1, 0, 0},
	}}
	docId := uuid.New()
	rebuilder := &fakeRebuilder{
		index:   indexWithVectors(t, docId, [][]float32{{1, 0, 0}}),
		version: 7,
		ok:      true,
	}
	f := newFixture(t, embedder, rebuilder, DefaultConfig())
	ctx := context.Background()
	collectionId := uuid.New()

	result, err := f.retriever.Retrieve(ctx, collectionId, "q")
	require.NoError(t, err)
	assert.True(t, result.IndexFound)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, 1, rebuilder.calls)

	// The rebuilt index is cached, so a second retrieval skips the rebuild.
	_, err = f.retriever.Retrieve(ctx, collectionId, "q")
	require.NoError(t, err)
	assert.Equal(t, 1, rebuilder.calls)

	cached, ok := f.cache.Get(collectionId)
	require.True(t, ok)
	assert.Equal(t, int64(7), cached.Version)
}

func TestRetrieveServesFromCacheAfterSnapshotGone(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"q": {1, 0, 0},
	}}
	f := newFixture(t, embedder, &fakeRebuilder{}, DefaultConfig())
	ctx := context.Background()
	collectionId := uuid.New()
	ix := indexWithVectors(t, uuid.New(), [][]float32{{1, 0, 0}})
	require.NoError(t, f.manager.Persist(ctx, collectionId, ix, 1))

	result, err := f.retriever.Retrieve(ctx, collectionId, "q")
	require.NoError(t, err)
	require.True(t, result.IndexFound)

	// The first retrieval warmed the cache; the snapshot disappearing no
	// longer affects reads until the entry is invalidated.
	require.NoError(t, f.manager.Delete(ctx, collectionId))

	result, err = f.retriever.Retrieve(ctx, collectionId, "q")
	require.NoError(t, err)
	assert.True(t, result.IndexFound)
	require.Len(t, result.Chunks, 1)

	f.retriever.Invalidate(collectionId)

	result, err = f.retriever.Retrieve(ctx, collectionId, "q")
	require.NoError(t, err)
	assert.False(t, result.IndexFound)
}

func TestRetrievePropagatesEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}
	f := newFixture(t, embedder, &fakeRebuilder{}, DefaultConfig())
	ctx := context.Background()
	collectionId := uuid.New()
	ix := indexWithVectors(t, uuid.New(), [][]float32{{1, 0, 0}})
	require.NoError(t, f.manager.Persist(ctx, collectionId, ix, 1))

	_, err := f.retriever.Retrieve(ctx, collectionId, "q")
	assert.Error(t, err)
}
