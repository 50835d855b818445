package synthesize

import (
	"context"
	"strings"
	"testing"
	"time"

	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/pkg/blob"
	"doc-qa-be/pkg/chunker"
	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/rag/cache"
	"doc-qa-be/pkg/rag/retrieve"
	ragsync "doc-qa-be/pkg/rag/sync"
	"doc-qa-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder scores texts by occurrences of a fixed vocabulary, so
// related texts land close in vector space without a real model.
type keywordEmbedder struct {
	vocabulary []string
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		v := make([]float32, len(k.vocabulary))
		for j, word := range k.vocabulary {
			v[j] = float32(strings.Count(lower, word))
		}
		out[i] = v
	}
	return out, nil
}

func (k *keywordEmbedder) ModelVersion() string { return "keyword-test-001" }
func (k *keywordEmbedder) Dimension() int       { return len(k.vocabulary) }

type nullRebuilder struct{}

func (nullRebuilder) Rebuild(ctx context.Context, collectionId uuid.UUID) (*vectorindex.Index, int64, bool, error) {
	return nil, 0, false, nil
}

// Exercises the ingest-to-answer path end to end with in-memory components:
// chunk, embed, index, persist, restore, retrieve, synthesize, cite.
func TestPipelineAnswersFromIngestedDocument(t *testing.T) {
	ctx := context.Background()
	embedder := &keywordEmbedder{vocabulary: []string{"deadline", "september", "budget", "invoice"}}

	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)
	log := logger.NewNopLogger()
	manager := ragsync.NewManager(store, log, embedder.ModelVersion(), embedder.Dimension())

	collectionId := uuid.New()
	documents := map[string]string{
		"budget.txt":   "The annual budget allocates funds across departments. Budget revisions require approval.",
		"planning.txt": "All submissions are reviewed quarterly. The project deadline is 30 September 2025 for every team.",
	}

	// Ingest: chunk each document, embed, and add to one collection index.
	index := vectorindex.New(embedder.ModelVersion(), embedder.Dimension())
	for name, text := range documents {
		docId := uuid.NewSHA1(collectionId, []byte("document:"+name))
		chunks, err := chunker.Split(docId, text, 1000, 200)
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := embedder.EmbedBatch(ctx, texts, embedding.TaskRetrievalDocument)
		require.NoError(t, err)
		for i, c := range chunks {
			require.NoError(t, index.Add(c, vectors[i], embedder.ModelVersion()))
		}
	}
	require.NoError(t, manager.Persist(ctx, collectionId, index, 1))

	// Retrieval runs on a fresh retriever, so the index comes back through
	// the durable snapshot rather than process memory.
	retriever := retrieve.NewRetriever(manager, cache.NewIndexCache(time.Minute), embedder, nullRebuilder{}, log, retrieve.DefaultConfig())

	result, err := retriever.Retrieve(ctx, collectionId, "what is the project deadline in september")
	require.NoError(t, err)
	require.True(t, result.IndexFound)
	require.NotEmpty(t, result.Chunks)
	assert.Contains(t, result.Chunks[0].Chunk.Text, "30 September 2025")

	model := &scriptedLLM{replies: []string{"The project deadline is 30 September 2025.\nSOURCES: 1"}}
	s := NewSynthesizer(model, log, 0)

	answer, err := s.Synthesize(ctx, Request{
		Question: "what is the project deadline in september",
		Chunks:   result.Chunks,
	})
	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Contains(t, answer.Text, "30 September 2025")

	require.Len(t, answer.CitedChunkIds, 1)
	assert.Equal(t, result.Chunks[0].Chunk.Id, answer.CitedChunkIds[0])

	// The model saw the excerpt it cited.
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "30 September 2025")
}

func TestPipelineNeverIngestedCollection(t *testing.T) {
	ctx := context.Background()
	embedder := &keywordEmbedder{vocabulary: []string{"deadline"}}

	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)
	log := logger.NewNopLogger()
	manager := ragsync.NewManager(store, log, embedder.ModelVersion(), embedder.Dimension())
	retriever := retrieve.NewRetriever(manager, cache.NewIndexCache(time.Minute), embedder, nullRebuilder{}, log, retrieve.DefaultConfig())

	result, err := retriever.Retrieve(ctx, uuid.New(), "anything at all")
	require.NoError(t, err)
	assert.False(t, result.IndexFound)
	assert.Empty(t, result.Chunks)
}
