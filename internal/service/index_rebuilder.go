package service

import (
	"context"

	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/chunker"
	"doc-qa-be/pkg/vectorindex"

	"github.com/google/uuid"
)

// dbIndexRebuilder reconstructs a collection's index from the chunk rows
// when the blob snapshot is gone. The collection row supplies the version.
type dbIndexRebuilder struct {
	uowFactory   unitofwork.RepositoryFactory
	modelVersion string
	dimension    int
}

func NewIndexRebuilder(uowFactory unitofwork.RepositoryFactory, modelVersion string, dimension int) *dbIndexRebuilder {
	return &dbIndexRebuilder{
		uowFactory:   uowFactory,
		modelVersion: modelVersion,
		dimension:    dimension,
	}
}

func (r *dbIndexRebuilder) Rebuild(ctx context.Context, collectionId uuid.UUID) (*vectorindex.Index, int64, bool, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.CollectionRepository().FindOne(ctx, specification.ByID{ID: collectionId})
	if err != nil {
		return nil, 0, false, err
	}
	if collection == nil || collection.Version == 0 {
		return nil, 0, false, nil
	}
	if collection.ModelVersion != r.modelVersion {
		// Rows were embedded with another model; unusable with current queries.
		return nil, 0, false, nil
	}

	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByCollectionID{CollectionID: collectionId},
		specification.OrderBy{Field: "sequence_index"},
	)
	if err != nil {
		return nil, 0, false, err
	}
	if len(chunks) == 0 {
		return nil, 0, false, nil
	}

	index := vectorindex.New(r.modelVersion, r.dimension)
	for _, c := range chunks {
		chunk := chunker.Chunk{
			Id:            c.Id,
			DocumentId:    c.DocumentId,
			SequenceIndex: c.SequenceIndex,
			Text:          c.Text,
			CharStart:     c.CharStart,
			CharEnd:       c.CharEnd,
		}
		if err := index.Add(chunk, c.EmbeddingValue, r.modelVersion); err != nil {
			return nil, 0, false, err
		}
	}
	return index, collection.Version, true, nil
}
