package embedding

import "context"

// Task types understood by the embedding providers.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Provider is the contract to the external embedding service.
// EmbedBatch returns one vector per input text, in the same order.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	// ModelVersion identifies the embedding model. All embeddings in one
	// collection share it; a version change forces full re-embedding.
	ModelVersion() string
	Dimension() int
}
