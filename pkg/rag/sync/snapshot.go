package sync

import (
	"encoding/json"
	"fmt"

	"doc-qa-be/pkg/vectorindex"

	"github.com/google/uuid"
)

// snapshotEnvelope is the durable wire format of a collection's vector index.
// The version inside the envelope mirrors the blob store's version metadata so
// a snapshot is self-describing even when copied out of the store.
type snapshotEnvelope struct {
	CollectionId uuid.UUID           `json:"collection_id"`
	Version      int64               `json:"version"`
	ModelVersion string              `json:"model_version"`
	Dimension    int                 `json:"dimension"`
	Entries      []vectorindex.Entry `json:"entries"`
}

func encodeSnapshot(collectionId uuid.UUID, index *vectorindex.Index, version int64) ([]byte, error) {
	env := snapshotEnvelope{
		CollectionId: collectionId,
		Version:      version,
		ModelVersion: index.ModelVersion(),
		Dimension:    index.Dimension(),
		Entries:      index.Entries(),
	}
	return json.Marshal(env)
}

func decodeSnapshot(data []byte) (*vectorindex.Index, int64, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}

	index := vectorindex.New(env.ModelVersion, env.Dimension)
	for _, e := range env.Entries {
		if err := index.Add(e.Chunk, e.Vector, env.ModelVersion); err != nil {
			return nil, 0, fmt.Errorf("rebuild index from snapshot: %w", err)
		}
	}
	return index, env.Version, nil
}
