package service

import (
	"context"
	"encoding/json"

	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/events"
	pktNats "doc-qa-be/pkg/nats"
	"doc-qa-be/pkg/rag/cache"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	SubscribeInvalidations(instanceName string) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	indexCache *cache.IndexCache
	natsSub    *pktNats.Subscriber
	log        logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	indexCache *cache.IndexCache,
	natsSub *pktNats.Subscriber,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		indexCache: indexCache,
		natsSub:    natsSub,
		log:        log,
	}
}

// Consume drains the in-process ingest-completed topic and audits each
// finished ingest against the database.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "Failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads would retry forever
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.CollectionRepository().FindOne(ctx, specification.ByID{ID: payload.CollectionId})
	if err != nil {
		cs.log.Error("consumer", "Failed to load collection for audit", map[string]interface{}{
			"collection_id": payload.CollectionId.String(),
			"error":         err.Error(),
		})
		msg.Nack()
		return
	}
	if collection == nil {
		// Deleted between ingest and audit.
		msg.Ack()
		return
	}

	chunkCount, err := uow.DocumentChunkRepository().Count(ctx,
		specification.ByDocumentID{DocumentID: payload.DocumentId},
	)
	if err != nil {
		cs.log.Error("consumer", "Failed to count chunks for audit", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	if int(chunkCount) != payload.ChunkCount || collection.Version < payload.Version {
		cs.log.Warn("consumer", "Ingest audit mismatch", map[string]interface{}{
			"collection_id":   payload.CollectionId.String(),
			"document_id":     payload.DocumentId.String(),
			"expected_chunks": payload.ChunkCount,
			"stored_chunks":   chunkCount,
			"row_version":     collection.Version,
			"event_version":   payload.Version,
		})
	} else {
		cs.log.Info("consumer", "Ingest audit passed", map[string]interface{}{
			"collection_id": payload.CollectionId.String(),
			"document_id":   payload.DocumentId.String(),
			"chunks":        chunkCount,
			"version":       payload.Version,
		})
	}

	msg.Ack()
}

// SubscribeInvalidations drops the local cached index whenever another
// instance rewrites a collection's snapshot. The durable name is
// per-instance so every instance sees every event.
func (cs *consumerService) SubscribeInvalidations(instanceName string) error {
	if cs.natsSub == nil {
		cs.log.Warn("consumer", "NATS subscriber unavailable, cross-instance invalidation disabled", nil)
		return nil
	}

	subject := "events." + events.TypeCollectionInvalidated
	durable := "cache-invalidation-" + instanceName

	return cs.natsSub.Subscribe(subject, durable, func(ctx context.Context, event events.Event) error {
		raw, ok := event.Payload()["collection_id"].(string)
		if !ok {
			return nil
		}
		collectionId, err := uuid.Parse(raw)
		if err != nil {
			return nil
		}
		cs.indexCache.Invalidate(collectionId)
		cs.log.Debug("consumer", "Invalidated cached index", map[string]interface{}{
			"collection_id": collectionId.String(),
		})
		return nil
	})
}
