package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/embedder"
	"github.com/dharnesh67/neurohub/internal/port"
)

// InsufficientContextAnswer is returned verbatim when a project has no
// indexed files to ground an answer in.
const InsufficientContextAnswer = "I'm sorry, but I don't have enough context to answer that question."

// QAService answers natural-language questions about a codebase by
// retrieving the most similar indexed files and prompting the model with
// their summaries and source.
type QAService struct {
	ai         port.AIProvider
	embeddings port.EmbeddingStore
	embedder   *embedder.Embedder
	topK       int
}

// NewQAService creates a retriever.
func NewQAService(ai port.AIProvider, embeddings port.EmbeddingStore, emb *embedder.Embedder, topK int) *QAService {
	if topK <= 0 {
		topK = 5
	}
	return &QAService{ai: ai, embeddings: embeddings, embedder: emb, topK: topK}
}

// AnswerQuestion embeds the question, retrieves the top-K most similar
// files, and streams the model's grounded answer. The ranked references are
// returned alongside the stream for provenance rendering.
//
// With no indexed files the model is not called: the answer channel yields
// the fixed insufficient-context message and zero references.
func (s *QAService) AnswerQuestion(ctx context.Context, projectID, question string) (<-chan string, []domain.FileReference, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, &port.ConfigurationError{Field: "question", Reason: "cannot be empty"}
	}

	vector := s.embedder.Embed(ctx, question)
	if len(vector) != s.embedder.Dimension() {
		return nil, nil, &port.EmbeddingError{Want: s.embedder.Dimension(), Got: len(vector)}
	}

	refs, err := s.embeddings.SearchSimilar(ctx, projectID, vector, s.topK)
	if err != nil {
		return nil, nil, fmt.Errorf("search similar: %w", err)
	}
	if len(refs) == 0 {
		slog.Info("question with no indexed context", "project_id", projectID)
		return staticAnswer(InsufficientContextAnswer), nil, nil
	}

	stream, err := s.ai.GenerateTextStream(ctx, answerPrompt(question, refs))
	if err != nil {
		return nil, nil, fmt.Errorf("generate answer: %w", err)
	}
	return stream, refs, nil
}

// answerPrompt embeds retrieved file context in a guarded prompt: the model
// must answer only from context and say so explicitly when context is
// insufficient.
func answerPrompt(question string, refs []domain.FileReference) string {
	var context strings.Builder
	for _, ref := range refs {
		fmt.Fprintf(&context, "File: %s\nSummary: %s\nSource Code:\n%s\n\n",
			ref.FilePath, ref.Summary, ref.Source)
	}

	return fmt.Sprintf(`You are an AI code assistant who answers questions about the codebase. Your
target audience is a technical intern with some programming knowledge.

START CONTEXT BLOCK
%s
END OF CONTEXT BLOCK

START QUESTION
%s
END OF QUESTION

Take the CONTEXT BLOCK into account. If the context does not provide the
answer to the question, say: %q
Do not invent anything that is not drawn directly from the context.
Answer in markdown syntax, with code snippets if needed. Be as detailed as
possible when answering.`, context.String(), question, InsufficientContextAnswer)
}

func staticAnswer(text string) <-chan string {
	ch := make(chan string, 1)
	ch <- text
	close(ch)
	return ch
}
