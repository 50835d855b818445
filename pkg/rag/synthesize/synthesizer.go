package synthesize

import (
	"context"
	"strconv"
	"strings"
	"time"

	"doc-qa-be/internal/apperr"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag/retrieve"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// Request is one synthesis call: the question, the ranked excerpts backing it,
// and the prior turns of the session for conversational continuity.
type Request struct {
	Question     string
	LanguageHint string
	Chunks       []retrieve.RetrievedChunk
	History      []llm.Message
}

// Answer is the parsed model output. Found=false means the model declared the
// excerpts insufficient; Text then holds a canned refusal and no citations.
type Answer struct {
	Text          string
	Found         bool
	CitedChunkIds []uuid.UUID
}

// RefusalText is what the user sees when the document lacks the answer.
const RefusalText = "The document does not contain an answer to this question."

// Synthesizer turns retrieved excerpts into a grounded, cited answer.
// contextCharBudget bounds the excerpt characters per prompt; 0 picks the
// default.
type Synthesizer struct {
	llmProvider       llm.LLMProvider
	log               logger.ILogger
	maxAttempts       uint
	contextCharBudget int
}

func NewSynthesizer(llmProvider llm.LLMProvider, log logger.ILogger, contextCharBudget int) *Synthesizer {
	return &Synthesizer{
		llmProvider:       llmProvider,
		log:               log,
		maxAttempts:       3,
		contextCharBudget: contextCharBudget,
	}
}

// Synthesize calls the model with bounded retries and parses the citation
// footer. Transient failures surface as ErrGenerationUnavailable.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Answer, error) {
	prompt := newGroundedBuilder(req.Question, req.LanguageHint, req.Chunks, s.contextCharBudget).Build()

	messages := make([]llm.Message, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond

	raw, err := backoff.Retry(ctx, func() (string, error) {
		return s.llmProvider.Chat(ctx, messages)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(s.maxAttempts))
	if err != nil {
		s.log.Error("synthesize", "Generation failed after retries", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, apperr.Wrap(apperr.ErrGenerationUnavailable, err)
	}

	answer := s.parse(raw, req.Chunks)
	s.log.Debug("synthesize", "Answer synthesized", map[string]interface{}{
		"found":     answer.Found,
		"citations": len(answer.CitedChunkIds),
	})
	return answer, nil
}

// parse strips the SOURCES footer, resolves excerpt numbers back to chunk ids
// and detects the refusal token. Malformed footers degrade to "cite all
// provided excerpts" rather than failing the request.
func (s *Synthesizer) parse(raw string, chunks []retrieve.RetrievedChunk) *Answer {
	text := strings.TrimSpace(raw)

	if strings.Contains(text, NotFoundToken) {
		return &Answer{Text: RefusalText, Found: false}
	}

	body := text
	var cited []uuid.UUID

	if idx := strings.LastIndex(text, sourcesPrefix); idx >= 0 {
		footer := text[idx+len(sourcesPrefix):]
		// Only honor the footer when it is the final line.
		if !strings.Contains(footer, "\n") {
			body = strings.TrimSpace(text[:idx])
			cited = resolveCitations(footer, chunks)
		}
	}

	if len(cited) == 0 {
		for _, rc := range chunks {
			cited = append(cited, rc.Chunk.Id)
		}
	}

	return &Answer{Text: body, Found: true, CitedChunkIds: cited}
}

func resolveCitations(footer string, chunks []retrieve.RetrievedChunk) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var cited []uuid.UUID
	for _, field := range strings.FieldsFunc(footer, func(r rune) bool {
		return r == ',' || r == ' ' || r == '[' || r == ']'
	}) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(chunks) {
			continue
		}
		id := chunks[n-1].Chunk.Id
		if !seen[id] {
			seen[id] = true
			cited = append(cited, id)
		}
	}
	return cited
}
