package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"doc-qa-be/pkg/chunker"

	"github.com/google/uuid"
)

// Entry pairs a chunk with its embedding vector inside the index.
type Entry struct {
	Chunk  chunker.Chunk `json:"chunk"`
	Vector []float32     `json:"vector"`
}

// ScoredChunk is a search hit with its cosine similarity score.
type ScoredChunk struct {
	Chunk chunker.Chunk
	Score float64
}

// Index is the in-process nearest-neighbor structure for one collection.
// Brute-force cosine similarity over chunk embeddings: single-writer
// multiple-reader within one instance, guarded by a RWMutex.
type Index struct {
	mu           sync.RWMutex
	modelVersion string
	dimension    int
	entries      map[uuid.UUID]Entry // chunk id -> entry
}

func New(modelVersion string, dimension int) *Index {
	return &Index{
		modelVersion: modelVersion,
		dimension:    dimension,
		entries:      make(map[uuid.UUID]Entry),
	}
}

func (ix *Index) ModelVersion() string { return ix.modelVersion }
func (ix *Index) Dimension() int       { return ix.dimension }

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Add inserts or overwrites by chunk id. All embeddings in one index must
// share the declared model version; a version change forces full re-embedding,
// never partial mixing.
func (ix *Index) Add(chunk chunker.Chunk, vector []float32, modelVersion string) error {
	if modelVersion != ix.modelVersion {
		return fmt.Errorf("embedding model version mismatch: index has %q, got %q", ix.modelVersion, modelVersion)
	}
	if len(vector) != ix.dimension {
		return fmt.Errorf("embedding dimension mismatch: index has %d, got %d", ix.dimension, len(vector))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[chunk.Id] = Entry{Chunk: chunk, Vector: vector}
	return nil
}

// RemoveDocument purges all chunks of a document and returns how many were
// removed. Used when a document is replaced.
func (ix *Index) RemoveDocument(documentId uuid.UUID) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := 0
	for id, e := range ix.entries {
		if e.Chunk.DocumentId == documentId {
			delete(ix.entries, id)
			removed++
		}
	}
	return removed
}

// Search returns the k most similar chunks, cosine similarity descending.
// Ties break by ascending sequence index so results are deterministic.
func (ix *Index) Search(query []float32, k int) []ScoredChunk {
	if k <= 0 {
		k = 5
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scored := make([]ScoredChunk, 0, len(ix.entries))
	for _, e := range ix.entries {
		scored = append(scored, ScoredChunk{
			Chunk: e.Chunk,
			Score: cosineSimilarity(query, e.Vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.SequenceIndex < scored[j].Chunk.SequenceIndex
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// Entries returns a copy of all entries, for snapshot encoding.
func (ix *Index) Entries() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]Entry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e)
	}
	// Stable order keeps snapshots byte-comparable across instances.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Chunk.DocumentId != out[j].Chunk.DocumentId {
			return out[i].Chunk.DocumentId.String() < out[j].Chunk.DocumentId.String()
		}
		return out[i].Chunk.SequenceIndex < out[j].Chunk.SequenceIndex
	})
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
