package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"doc-qa-be/internal/apperr"
	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/chunker"
	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/events"
	pktNats "doc-qa-be/pkg/nats"
	"doc-qa-be/pkg/rag/cache"
	ragsync "doc-qa-be/pkg/rag/sync"
	"doc-qa-be/pkg/vectorindex"

	"github.com/google/uuid"
)

// geminiBatchLimit caps one batchEmbedContents call.
const geminiBatchLimit = 100

// maxIngestAttempts bounds the read-modify-write loop on snapshot conflicts.
const maxIngestAttempts = 3

type IDocumentService interface {
	Ingest(ctx context.Context, userId uuid.UUID, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	ShowCollection(ctx context.Context, userId uuid.UUID, collectionId uuid.UUID) (*dto.ShowCollectionResponse, error)
	DeleteCollection(ctx context.Context, userId uuid.UUID, collectionId uuid.UUID) error
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	syncManager       *ragsync.Manager
	indexCache        *cache.IndexCache
	publisherService  IPublisherService
	eventPublisher    *pktNats.Publisher
	log               logger.ILogger
	config            IngestConfig
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	syncManager *ragsync.Manager,
	indexCache *cache.IndexCache,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	config IngestConfig,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		syncManager:       syncManager,
		indexCache:        indexCache,
		publisherService:  publisherService,
		eventPublisher:    eventPublisher,
		log:               log,
		config:            config,
	}
}

// DocumentId derives the document id from collection and name, so uploading
// the same name into the same collection replaces the previous content.
func DocumentId(collectionId uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(collectionId, []byte("document:"+name))
}

func (s *documentService) Ingest(ctx context.Context, userId uuid.UUID, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	collection, err := s.resolveCollection(ctx, uow, userId, req)
	if err != nil {
		return nil, err
	}

	documentId := DocumentId(collection.Id, req.Name)
	chunks, err := chunker.Split(documentId, req.Text, s.config.ChunkSize, s.config.ChunkOverlap)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIngestionFailed, err)
	}
	if len(chunks) == 0 {
		return nil, apperr.Wrap(apperr.ErrIngestionFailed, errors.New("document produced no chunks"))
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	version, err := s.commitIngest(ctx, userId, collection, documentId, req, chunks, vectors)
	if err != nil {
		return nil, err
	}

	s.announceIngest(ctx, collection.Id, documentId, len(chunks), version)

	return &dto.IngestDocumentResponse{
		CollectionId: collection.Id,
		DocumentId:   documentId,
		ChunkCount:   len(chunks),
		Version:      version,
	}, nil
}

func (s *documentService) resolveCollection(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, req *dto.IngestDocumentRequest) (*entity.Collection, error) {
	if req.CollectionId == uuid.Nil {
		collection := entity.Collection{
			Id:           uuid.New(),
			UserId:       userId,
			Name:         req.Name,
			Version:      0,
			ModelVersion: s.embeddingProvider.ModelVersion(),
			CreatedAt:    time.Now(),
		}
		if err := uow.CollectionRepository().Create(ctx, &collection); err != nil {
			return nil, err
		}
		return &collection, nil
	}

	collection, err := uow.CollectionRepository().FindOne(ctx,
		specification.ByID{ID: req.CollectionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, apperr.ErrCollectionNotFound
	}
	return collection, nil
}

func (s *documentService) embedChunks(ctx context.Context, chunks []chunker.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += geminiBatchLimit {
		end := start + geminiBatchLimit
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := s.embeddingProvider.EmbedBatch(ctx, texts, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrEmbeddingUnavailable, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// commitIngest runs the read-modify-write loop: restore at the current
// version, swap the document's chunks, persist at version+1, record in
// Postgres. A snapshot conflict restarts the whole loop from a fresh read.
func (s *documentService) commitIngest(
	ctx context.Context,
	userId uuid.UUID,
	collection *entity.Collection,
	documentId uuid.UUID,
	req *dto.IngestDocumentRequest,
	chunks []chunker.Chunk,
	vectors [][]float32,
) (int64, error) {
	modelVersion := s.embeddingProvider.ModelVersion()

	var lastErr error
	for attempt := 1; attempt <= maxIngestAttempts; attempt++ {
		index, version, err := s.syncManager.Restore(ctx, collection.Id)
		if err != nil {
			return 0, err
		}
		if index.ModelVersion() != modelVersion {
			// Model changed underneath the collection: start a fresh index,
			// the stale one cannot be mixed with new vectors.
			index = vectorindex.New(modelVersion, s.embeddingProvider.Dimension())
		}

		index.RemoveDocument(documentId)
		for i, c := range chunks {
			if err := index.Add(c, vectors[i], modelVersion); err != nil {
				return 0, apperr.Wrap(apperr.ErrIngestionFailed, err)
			}
		}

		newVersion := version + 1
		if err := s.syncManager.Persist(ctx, collection.Id, index, newVersion); err != nil {
			if errors.Is(err, apperr.ErrStaleVersion) {
				lastErr = err
				s.log.Warn("document", "Snapshot version conflict, retrying ingest", map[string]interface{}{
					"collection_id": collection.Id.String(),
					"attempt":       attempt,
				})
				continue
			}
			return 0, err
		}

		if err := s.recordIngest(ctx, userId, collection, documentId, req, chunks, vectors, newVersion, modelVersion); err != nil {
			return 0, err
		}

		s.indexCache.Save(collection.Id, index, newVersion)
		return newVersion, nil
	}
	return 0, lastErr
}

func (s *documentService) recordIngest(
	ctx context.Context,
	userId uuid.UUID,
	collection *entity.Collection,
	documentId uuid.UUID,
	req *dto.IngestDocumentRequest,
	chunks []chunker.Chunk,
	vectors [][]float32,
	newVersion int64,
	modelVersion string,
) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		return err
	}

	chunkEntities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		chunkEntities[i] = &entity.DocumentChunk{
			Id:             c.Id,
			DocumentId:     documentId,
			CollectionId:   collection.Id,
			SequenceIndex:  c.SequenceIndex,
			Text:           c.Text,
			CharStart:      c.CharStart,
			CharEnd:        c.CharEnd,
			EmbeddingValue: vectors[i],
			CreatedAt:      time.Now(),
		}
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunkEntities); err != nil {
		return err
	}

	existing, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return err
	}
	document := entity.Document{
		Id:           documentId,
		CollectionId: collection.Id,
		UserId:       userId,
		Name:         req.Name,
		CharCount:    len(req.Text),
		ChunkCount:   len(chunks),
		CreatedAt:    time.Now(),
	}
	if existing == nil {
		err = uow.DocumentRepository().Create(ctx, &document)
	} else {
		document.CreatedAt = existing.CreatedAt
		err = uow.DocumentRepository().Update(ctx, &document)
	}
	if err != nil {
		return err
	}

	// The row version mirrors the snapshot; losing this race means another
	// writer already advanced it, and the snapshot CAS is the authority.
	ok, err := uow.CollectionRepository().UpdateVersion(ctx, collection.Id, collection.Version, newVersion, modelVersion)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("document", "Collection row version advanced concurrently", map[string]interface{}{
			"collection_id": collection.Id.String(),
			"expected":      collection.Version,
		})
	}

	return uow.Commit()
}

func (s *documentService) announceIngest(ctx context.Context, collectionId, documentId uuid.UUID, chunkCount int, version int64) {
	msgPayload := dto.PublishIngestCompletedMessage{
		CollectionId: collectionId,
		DocumentId:   documentId,
		ChunkCount:   chunkCount,
		Version:      version,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err == nil {
		if err := s.publisherService.Publish(ctx, msgJson); err != nil {
			s.log.Warn("document", "Failed to publish ingest completion", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Other instances drop their cached index on this event. Auxiliary, so a
	// publish failure never fails the request.
	if s.eventPublisher != nil {
		evt := events.NewCollectionInvalidatedEvent(collectionId, version)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("document", "Failed to publish invalidation event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func (s *documentService) ShowCollection(ctx context.Context, userId uuid.UUID, collectionId uuid.UUID) (*dto.ShowCollectionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.CollectionRepository().FindOne(ctx,
		specification.ByID{ID: collectionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, apperr.ErrCollectionNotFound
	}

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByCollectionID{CollectionID: collectionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ShowDocumentSummary, len(documents))
	for i, d := range documents {
		summaries[i] = dto.ShowDocumentSummary{
			Id:         d.Id,
			Name:       d.Name,
			CharCount:  d.CharCount,
			ChunkCount: d.ChunkCount,
			CreatedAt:  d.CreatedAt,
		}
	}

	return &dto.ShowCollectionResponse{
		Id:           collection.Id,
		Name:         collection.Name,
		Version:      collection.Version,
		ModelVersion: collection.ModelVersion,
		Documents:    summaries,
		CreatedAt:    collection.CreatedAt,
		UpdatedAt:    collection.UpdatedAt,
	}, nil
}

func (s *documentService) DeleteCollection(ctx context.Context, userId uuid.UUID, collectionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.CollectionRepository().FindOne(ctx,
		specification.ByID{ID: collectionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if collection == nil {
		return apperr.ErrCollectionNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByCollectionId(ctx, collectionId); err != nil {
		return err
	}
	if err := uow.DocumentRepository().DeleteByCollectionId(ctx, collectionId); err != nil {
		return err
	}
	if err := uow.CollectionRepository().Delete(ctx, collectionId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if err := s.syncManager.Delete(ctx, collectionId); err != nil {
		s.log.Warn("document", "Failed to delete snapshot", map[string]interface{}{
			"collection_id": collectionId.String(),
			"error":         err.Error(),
		})
	}
	s.indexCache.Invalidate(collectionId)

	if s.eventPublisher != nil {
		evt := events.NewCollectionInvalidatedEvent(collectionId, 0)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("document", "Failed to publish invalidation event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return nil
}
