package synthesize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doc-qa-be/internal/apperr"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/pkg/chunker"
	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag/retrieve"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	replies  []string
	failures int
	calls    int
	prompts  []string
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.calls++
	if len(history) > 0 {
		s.prompts = append(s.prompts, history[len(history)-1].Content)
	}
	if s.failures > 0 {
		s.failures--
		return "", errors.New("model overloaded")
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func retrievedChunks(docId uuid.UUID, texts ...string) []retrieve.RetrievedChunk {
	out := make([]retrieve.RetrievedChunk, len(texts))
	for i, text := range texts {
		out[i] = retrieve.RetrievedChunk{
			Chunk: chunker.Chunk{
				Id:            chunker.ChunkId(docId, i),
				DocumentId:    docId,
				SequenceIndex: i,
				Text:          text,
			},
			Score: 1 - float64(i)*0.1,
		}
	}
	return out
}

func TestSynthesizeParsesSourcesFooter(t *testing.T) {
	docId := uuid.New()
	chunks := retrievedChunks(docId, "first excerpt", "second excerpt", "third excerpt")
	model := &scriptedLLM{replies: []string{
		"The deadline is 30 September 2025.\nSOURCES: 1, 3",
	}}
	s := NewSynthesizer(model, logger.NewNopLogger(), 0)

	answer, err := s.Synthesize(context.Background(), Request{
		Question: "What is the deadline?",
		Chunks:   chunks,
	})
	require.NoError(t, err)

	assert.True(t, answer.Found)
	assert.Equal(t, "The deadline is 30 September 2025.", answer.Text)
	require.Len(t, answer.CitedChunkIds, 2)
	assert.Equal(t, chunks[0].Chunk.Id, answer.CitedChunkIds[0])
	assert.Equal(t, chunks[2].Chunk.Id, answer.CitedChunkIds[1])
}

func TestSynthesizeNotFoundToken(t *testing.T) {
	docId := uuid.New()
	model := &scriptedLLM{replies: []string{NotFoundToken}}
	s := NewSynthesizer(model, logger.NewNopLogger(), 0)

	answer, err := s.Synthesize(context.Background(), Request{
		Question: "Who signed the treaty?",
		Chunks:   retrievedChunks(docId, "unrelated excerpt"),
	})
	require.NoError(t, err)

	assert.False(t, answer.Found)
	assert.Equal(t, RefusalText, answer.Text)
	assert.Empty(t, answer.CitedChunkIds)
}

func TestSynthesizeMalformedFooterCitesAllExcerpts(t *testing.T) {
	docId := uuid.New()
	chunks := retrievedChunks(docId, "a", "b")

	tests := []struct {
		name  string
		reply string
	}{
		{name: "no footer", reply: "An answer with no footer at all."},
		{name: "footer not last line", reply: "SOURCES: 1\nMore prose after the footer."},
		{name: "garbage numbers", reply: "An answer.\nSOURCES: nine, ten"},
		{name: "out of range", reply: "An answer.\nSOURCES: 0, 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedLLM{replies: []string{tt.reply}}
			s := NewSynthesizer(model, logger.NewNopLogger(), 0)

			answer, err := s.Synthesize(context.Background(), Request{
				Question: "q",
				Chunks:   chunks,
			})
			require.NoError(t, err)
			assert.True(t, answer.Found)
			assert.Equal(t, []uuid.UUID{chunks[0].Chunk.Id, chunks[1].Chunk.Id}, answer.CitedChunkIds)
		})
	}
}

func TestSynthesizeDeduplicatesCitations(t *testing.T) {
	docId := uuid.New()
	chunks := retrievedChunks(docId, "a", "b")
	model := &scriptedLLM{replies: []string{"Answer.\nSOURCES: 2, 2, 1, 2"}}
	s := NewSynthesizer(model, logger.NewNopLogger(), 0)

	answer, err := s.Synthesize(context.Background(), Request{Question: "q", Chunks: chunks})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{chunks[1].Chunk.Id, chunks[0].Chunk.Id}, answer.CitedChunkIds)
}

func TestSynthesizeRetriesTransientFailures(t *testing.T) {
	docId := uuid.New()
	model := &scriptedLLM{
		failures: 2,
		replies:  []string{"Recovered answer.\nSOURCES: 1"},
	}
	s := NewSynthesizer(model, logger.NewNopLogger(), 0)

	answer, err := s.Synthesize(context.Background(), Request{
		Question: "q",
		Chunks:   retrievedChunks(docId, "only excerpt"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, model.calls)
	assert.Equal(t, "Recovered answer.", answer.Text)
}

func TestSynthesizeExhaustedRetriesSurfaceAsUnavailable(t *testing.T) {
	docId := uuid.New()
	model := &scriptedLLM{failures: 10, replies: []string{"never reached"}}
	s := NewSynthesizer(model, logger.NewNopLogger(), 0)

	_, err := s.Synthesize(context.Background(), Request{
		Question: "q",
		Chunks:   retrievedChunks(docId, "excerpt"),
	})
	assert.ErrorIs(t, err, apperr.ErrGenerationUnavailable)
	assert.Equal(t, 3, model.calls)
}

func TestPromptBoundsExcerptsByCharBudget(t *testing.T) {
	docId := uuid.New()
	chunks := retrievedChunks(docId,
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	)

	// Budget covers the first excerpt and half the second: the second is
	// cut, the third never appears, numbering stays aligned with rank.
	prompt := newGroundedBuilder("q", "", chunks, 60).Build()
	assert.Contains(t, prompt, "[1]\n"+strings.Repeat("a", 40))
	assert.Contains(t, prompt, "[2]\n"+strings.Repeat("b", 20)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("b", 21))
	assert.NotContains(t, prompt, "[3]")

	// A zero budget falls back to the default, which fits everything here.
	prompt = newGroundedBuilder("q", "", chunks, 0).Build()
	assert.Contains(t, prompt, "[3]\n"+strings.Repeat("c", 40))
}

func TestSynthesizePromptCarriesExcerptsAndHistory(t *testing.T) {
	docId := uuid.New()
	chunks := retrievedChunks(docId, "The project deadline is 30 September 2025.")
	model := &scriptedLLM{replies: []string{"Answer.\nSOURCES: 1"}}
	s := NewSynthesizer(model, logger.NewNopLogger(), 0)

	history := []llm.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	_, err := s.Synthesize(context.Background(), Request{
		Question:     "When is it due?",
		LanguageHint: "en",
		Chunks:       chunks,
		History:      history,
	})
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	prompt := model.prompts[0]
	assert.True(t, strings.Contains(prompt, "The project deadline is 30 September 2025."))
	assert.True(t, strings.Contains(prompt, "When is it due?"))
	assert.True(t, strings.Contains(prompt, NotFoundToken))
}
