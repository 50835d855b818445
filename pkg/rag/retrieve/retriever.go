package retrieve

import (
	"context"
	"fmt"

	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/pkg/chunker"
	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/rag/cache"
	ragsync "doc-qa-be/pkg/rag/sync"
	"doc-qa-be/pkg/vectorindex"

	"github.com/google/uuid"
)

// Config encapsulates retrieval parameters
type Config struct {
	TopK           int
	FetchK         int
	ScoreThreshold float64
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		TopK:           5,
		FetchK:         10, // over-fetch so threshold filtering still fills TopK
		ScoreThreshold: 0.35,
	}
}

// RetrievedChunk is a ranked chunk with its similarity score.
type RetrievedChunk struct {
	Chunk chunker.Chunk
	Score float64
}

// Result carries ranked chunks plus whether any index exists at all for the
// collection. IndexFound=false means no snapshot and no cached index: the
// caller must treat this as "no document", distinct from an empty ranking.
type Result struct {
	Chunks     []RetrievedChunk
	IndexFound bool
}

// IndexRebuilder recovers a collection's index from a secondary durable
// source (the chunk rows in Postgres) when the blob snapshot is missing.
type IndexRebuilder interface {
	Rebuild(ctx context.Context, collectionId uuid.UUID) (*vectorindex.Index, int64, bool, error)
}

// Retriever answers "which chunks are relevant to this query" for one
// collection, lazily restoring the vector index through the Sync Manager.
type Retriever struct {
	syncManager       *ragsync.Manager
	indexCache        *cache.IndexCache
	embeddingProvider embedding.Provider
	rebuilder         IndexRebuilder
	log               logger.ILogger
	config            Config
}

func NewRetriever(
	syncManager *ragsync.Manager,
	indexCache *cache.IndexCache,
	embeddingProvider embedding.Provider,
	rebuilder IndexRebuilder,
	log logger.ILogger,
	config Config,
) *Retriever {
	if config.TopK <= 0 {
		config = DefaultConfig()
	}
	return &Retriever{
		syncManager:       syncManager,
		indexCache:        indexCache,
		embeddingProvider: embeddingProvider,
		rebuilder:         rebuilder,
		log:               log,
		config:            config,
	}
}

// Retrieve embeds the query and ranks the collection's chunks against it.
// Results below the score threshold are dropped; the remainder is capped at
// TopK. An empty ranking with IndexFound=true means "insufficient context".
func (r *Retriever) Retrieve(ctx context.Context, collectionId uuid.UUID, query string) (*Result, error) {
	index, found, err := r.obtainIndex(ctx, collectionId)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Result{IndexFound: false}, nil
	}
	if index.Len() == 0 {
		return &Result{IndexFound: true}, nil
	}

	vectors, err := r.embeddingProvider.EmbedBatch(ctx, []string{query}, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored := index.Search(vectors[0], r.config.FetchK)

	chunks := make([]RetrievedChunk, 0, r.config.TopK)
	for i, sc := range scored {
		if sc.Score < r.config.ScoreThreshold {
			r.log.Debug("retrieve", "Candidate filtered below threshold", map[string]interface{}{
				"rank":  i + 1,
				"score": sc.Score,
			})
			continue
		}
		chunks = append(chunks, RetrievedChunk{Chunk: sc.Chunk, Score: sc.Score})
		if len(chunks) == r.config.TopK {
			break
		}
	}

	r.log.Debug("retrieve", "Retrieval complete", map[string]interface{}{
		"collection_id": collectionId.String(),
		"candidates":    len(scored),
		"kept":          len(chunks),
	})

	return &Result{Chunks: chunks, IndexFound: true}, nil
}

// Invalidate drops the per-instance cached index for a collection.
func (r *Retriever) Invalidate(collectionId uuid.UUID) {
	r.indexCache.Invalidate(collectionId)
}

// obtainIndex returns the collection's index from cache, snapshot, or the
// durable chunk rows, in that order. found=false when none of the three has
// ever seen the collection.
func (r *Retriever) obtainIndex(ctx context.Context, collectionId uuid.UUID) (*vectorindex.Index, bool, error) {
	if cached, ok := r.indexCache.Get(collectionId); ok {
		return cached.Index, true, nil
	}

	index, version, err := r.syncManager.Restore(ctx, collectionId)
	if err != nil {
		return nil, false, err
	}
	if version > 0 {
		r.indexCache.Save(collectionId, index, version)
		return index, true, nil
	}

	// No snapshot. Fall back to the durable chunk rows before concluding the
	// collection has never been ingested.
	if r.rebuilder != nil {
		rebuilt, rebuiltVersion, ok, err := r.rebuilder.Rebuild(ctx, collectionId)
		if err != nil {
			return nil, false, fmt.Errorf("rebuild index: %w", err)
		}
		if ok {
			r.log.Warn("retrieve", "Rebuilt index from chunk rows, snapshot was missing", map[string]interface{}{
				"collection_id": collectionId.String(),
				"chunks":        rebuilt.Len(),
			})
			r.indexCache.Save(collectionId, rebuilt, rebuiltVersion)
			return rebuilt, true, nil
		}
	}

	return nil, false, nil
}
