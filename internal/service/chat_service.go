package service

import (
	"context"
	"time"

	"doc-qa-be/internal/apperr"
	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag/retrieve"
	"doc-qa-be/pkg/rag/synthesize"

	"github.com/google/uuid"
)

// historyWindow is how many prior turns are replayed to the model.
const historyWindow = 10

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	retriever   *retrieve.Retriever
	synthesizer *synthesize.Synthesizer
	log         logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	retriever *retrieve.Retriever,
	synthesizer *synthesize.Synthesizer,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:  uowFactory,
		retriever:   retriever,
		synthesizer: synthesizer,
		log:         log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

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

	session := entity.ChatSession{
		Id:           uuid.New(),
		UserId:       userId,
		CollectionId: req.CollectionId,
		Title:        req.Title,
		CreatedAt:    time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, sess := range sessions {
		res[i] = &dto.GetAllSessionsResponse{
			Id:           sess.Id,
			CollectionId: sess.CollectionId,
			Title:        sess.Title,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
		}
	}
	return res, nil
}

func (s *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	turns, err := uow.TurnRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "sequence_index"},
	)
	if err != nil {
		return nil, err
	}

	citationsByTurn, err := s.loadCitations(ctx, uow, turns)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetChatHistoryResponse, len(turns))
	for i, t := range turns {
		res[i] = &dto.GetChatHistoryResponse{
			Id:            t.Id,
			Role:          t.Role,
			Content:       t.Content,
			SequenceIndex: t.SequenceIndex,
			Outcome:       t.Outcome,
			Citations:     citationsByTurn[t.Id],
			CreatedAt:     t.CreatedAt,
		}
	}
	return res, nil
}

// Ask runs the full pipeline: retrieve, synthesize, append both turns. The
// three outcomes differ in persistence: "no_document" appends nothing,
// "not_found" appends the exchange without citations, "answered" appends the
// exchange plus citations.
func (s *chatService) Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	result, err := s.retriever.Retrieve(ctx, session.CollectionId, req.Question)
	if err != nil {
		return nil, err
	}

	if !result.IndexFound {
		s.log.Info("chat", "Ask before any ingest", map[string]interface{}{
			"session_id": session.Id.String(),
		})
		return &dto.AskResponse{
			ChatSessionId: session.Id,
			Outcome:       entity.OutcomeNoDocument,
		}, nil
	}

	outcome := entity.OutcomeNotFound
	replyText := synthesize.RefusalText
	var citations []*entity.TurnCitation

	if len(result.Chunks) > 0 {
		history, err := s.loadHistory(ctx, uow, session.Id)
		if err != nil {
			return nil, err
		}

		answer, err := s.synthesizer.Synthesize(ctx, synthesize.Request{
			Question:     req.Question,
			LanguageHint: req.LanguageHint,
			Chunks:       result.Chunks,
			History:      history,
		})
		if err != nil {
			return nil, err
		}

		if answer.Found {
			outcome = entity.OutcomeAnswered
			replyText = answer.Text
			citations = buildCitations(answer.CitedChunkIds, result.Chunks)
		}
	}

	sent, reply, err := s.appendExchange(ctx, session.Id, req.Question, replyText, outcome, citations)
	if err != nil {
		return nil, err
	}

	return &dto.AskResponse{
		ChatSessionId: session.Id,
		Outcome:       outcome,
		Sent:          sent,
		Reply:         reply,
	}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.TurnRepository().DeleteBySessionId(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *chatService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ErrSessionNotFound
	}
	return session, nil
}

func (s *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	turns, err := uow.TurnRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "sequence_index", Desc: true},
		specification.Pagination{Limit: historyWindow},
	)
	if err != nil {
		return nil, err
	}

	// Reverse back to chronological order.
	messages := make([]llm.Message, len(turns))
	for i, t := range turns {
		messages[len(turns)-1-i] = llm.Message{
			Role:    t.Role,
			Content: t.Content,
		}
	}
	return messages, nil
}

func (s *chatService) loadCitations(ctx context.Context, uow unitofwork.UnitOfWork, turns []*entity.Turn) (map[uuid.UUID][]dto.CitationDTO, error) {
	if len(turns) == 0 {
		return nil, nil
	}

	turnIds := make([]uuid.UUID, len(turns))
	for i, t := range turns {
		turnIds[i] = t.Id
	}

	citations, err := uow.TurnCitationRepository().FindAll(ctx,
		specification.ByTurnIDs{TurnIDs: turnIds},
		specification.OrderBy{Field: "rank"},
	)
	if err != nil {
		return nil, err
	}

	byTurn := make(map[uuid.UUID][]dto.CitationDTO)
	for _, c := range citations {
		byTurn[c.TurnId] = append(byTurn[c.TurnId], dto.CitationDTO{
			ChunkId:    c.ChunkId,
			DocumentId: c.DocumentId,
			Rank:       c.Rank,
			Score:      c.Score,
			CharStart:  c.CharStart,
			CharEnd:    c.CharEnd,
		})
	}
	return byTurn, nil
}

// appendExchange writes the user turn and assistant reply atomically. The
// session row lock serializes concurrent asks so sequence indexes never
// collide.
func (s *chatService) appendExchange(
	ctx context.Context,
	sessionId uuid.UUID,
	question, replyText, outcome string,
	citations []*entity.TurnCitation,
) (*dto.AskResponseTurn, *dto.AskResponseTurn, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer uow.Rollback()

	locked, err := uow.ChatSessionRepository().FindOneLocked(ctx, sessionId)
	if err != nil {
		return nil, nil, err
	}
	if locked == nil {
		return nil, nil, apperr.ErrSessionNotFound
	}

	next, err := uow.TurnRepository().NextSequenceIndex(ctx, sessionId)
	if err != nil {
		return nil, nil, err
	}

	userTurn := &entity.Turn{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          entity.RoleUser,
		Content:       question,
		SequenceIndex: next,
		CreatedAt:     time.Now(),
	}
	assistantTurn := &entity.Turn{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          entity.RoleAssistant,
		Content:       replyText,
		SequenceIndex: next + 1,
		Outcome:       outcome,
		CreatedAt:     time.Now(),
	}
	if err := uow.TurnRepository().CreateBulk(ctx, []*entity.Turn{userTurn, assistantTurn}); err != nil {
		return nil, nil, err
	}

	citationDTOs := make([]dto.CitationDTO, len(citations))
	for i, c := range citations {
		c.TurnId = assistantTurn.Id
		citationDTOs[i] = dto.CitationDTO{
			ChunkId:    c.ChunkId,
			DocumentId: c.DocumentId,
			Rank:       c.Rank,
			Score:      c.Score,
			CharStart:  c.CharStart,
			CharEnd:    c.CharEnd,
		}
	}
	if err := uow.TurnCitationRepository().CreateBulk(ctx, citations); err != nil {
		return nil, nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, err
	}

	sent := &dto.AskResponseTurn{
		Id:            userTurn.Id,
		Role:          userTurn.Role,
		Content:       userTurn.Content,
		SequenceIndex: userTurn.SequenceIndex,
		CreatedAt:     userTurn.CreatedAt,
	}
	reply := &dto.AskResponseTurn{
		Id:            assistantTurn.Id,
		Role:          assistantTurn.Role,
		Content:       assistantTurn.Content,
		SequenceIndex: assistantTurn.SequenceIndex,
		Citations:     citationDTOs,
		CreatedAt:     assistantTurn.CreatedAt,
	}
	return sent, reply, nil
}

// buildCitations resolves cited chunk ids back to their retrieval metadata,
// preserving retrieval rank.
func buildCitations(citedIds []uuid.UUID, chunks []retrieve.RetrievedChunk) []*entity.TurnCitation {
	byId := make(map[uuid.UUID]int, len(chunks))
	for i, rc := range chunks {
		byId[rc.Chunk.Id] = i
	}

	var citations []*entity.TurnCitation
	for _, id := range citedIds {
		i, ok := byId[id]
		if !ok {
			continue
		}
		rc := chunks[i]
		citations = append(citations, &entity.TurnCitation{
			Id:         uuid.New(),
			ChunkId:    rc.Chunk.Id,
			DocumentId: rc.Chunk.DocumentId,
			Rank:       i + 1,
			Score:      rc.Score,
			CharStart:  rc.Chunk.CharStart,
			CharEnd:    rc.Chunk.CharEnd,
			CreatedAt:  time.Now(),
		})
	}
	return citations
}
