package synthesize

import (
	"strconv"
	"strings"

	"doc-qa-be/pkg/rag/retrieve"
)

// NotFoundToken is the exact token the model must emit when the provided
// excerpts do not contain the answer. Matched verbatim during parsing.
const NotFoundToken = "NOT_FOUND_IN_DOCUMENT"

// sourcesPrefix opens the final line listing which excerpts were used.
const sourcesPrefix = "SOURCES:"

// defaultContextCharBudget caps the total excerpt characters in one prompt.
const defaultContextCharBudget = 8000

// groundedBuilder builds the grounded answer prompt: numbered excerpts as the
// only allowed knowledge, the refusal token, and the SOURCES footer contract.
// Excerpts are spent against charBudget in score order; the excerpt that
// crosses the budget is cut and the rest are dropped, so the numbering of
// what survives always matches the chunk order handed in.
type groundedBuilder struct {
	question     string
	languageHint string
	chunks       []retrieve.RetrievedChunk
	charBudget   int
}

func newGroundedBuilder(question, languageHint string, chunks []retrieve.RetrievedChunk, charBudget int) *groundedBuilder {
	if charBudget <= 0 {
		charBudget = defaultContextCharBudget
	}
	return &groundedBuilder{
		question:     question,
		languageHint: languageHint,
		chunks:       chunks,
		charBudget:   charBudget,
	}
}

// Build creates the prompt sent as the final user message.
func (b *groundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeExcerpts(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *groundedBuilder) writeExcerpts(prompt *strings.Builder) {
	remaining := b.charBudget
	prompt.WriteString("<document_excerpts>\n")
	for i, rc := range b.chunks {
		if remaining <= 0 {
			break
		}
		text := rc.Chunk.Text
		if runes := []rune(text); len(runes) > remaining {
			text = string(runes[:remaining])
			remaining = 0
		} else {
			remaining -= len(runes)
		}
		prompt.WriteString("[")
		prompt.WriteString(strconv.Itoa(i + 1))
		prompt.WriteString("]\n")
		prompt.WriteString(text)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</document_excerpts>\n\n")
}

func (b *groundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are an assistant answering questions about the user's uploaded document.\n")
	prompt.WriteString("The numbered excerpts above are your ONLY source of knowledge for this answer.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *groundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Answer strictly from the excerpts. Never use outside knowledge or guess.\n")
	prompt.WriteString("2. If the excerpts do not contain the answer, reply with exactly " + NotFoundToken + " and nothing else.\n")
	prompt.WriteString("3. Be complete but concise; quote figures, names and dates exactly as written.\n")
	if b.languageHint != "" {
		prompt.WriteString("4. Respond in " + b.languageHint + ".\n")
	} else {
		prompt.WriteString("4. Respond in the same language as the question.\n")
	}
	prompt.WriteString("5. End your answer with one final line of the form \"" + sourcesPrefix + " 1, 3\" listing the excerpt numbers you actually used.\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *groundedBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now answer using only the excerpts above:")
}
