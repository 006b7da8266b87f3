// Package summarizer turns commits and source files into short natural-
// language descriptions via the LLM, with a deterministic fallback so the
// pipeline never terminates a unit of work without some committed
// description.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dharnesh67/neurohub/internal/batch"
	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/port"
)

// minSummaryChars is the plausibility floor: model output shorter than this
// is treated as a failure, not a valid answer.
const minSummaryChars = 20

// cacheKeyPrefixLen bounds how much of the commit message participates in
// the cache key.
const cacheKeyPrefixLen = 80

var errShortSummary = errors.New("summary implausibly short")

// Summarizer generates commit and file summaries through the AI provider.
type Summarizer struct {
	ai    port.AIProvider
	retry batch.RetryConfig
	cache *lru.Cache[string, string]
}

// New creates a summarizer with a bounded LRU cache of commit summaries.
func New(ai port.AIProvider, retry batch.RetryConfig, cacheSize int) *Summarizer {
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	cache, _ := lru.New[string, string](cacheSize)
	return &Summarizer{ai: ai, retry: retry, cache: cache}
}

// SummarizeCommit produces a terse bullet-point description of a commit.
// It never fails: when the model path is exhausted the deterministic
// fallback is used instead.
func (s *Summarizer) SummarizeCommit(ctx context.Context, detail domain.CommitDetail) string {
	key := cacheKey(detail)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	summary, err := s.generate(ctx, commitPrompt(detail))
	if err != nil {
		slog.Warn("commit summarization fell back", "hash", detail.Hash, "error", err)
		summary = FallbackCommitSummary(detail)
	}

	s.cache.Add(key, summary)
	return summary
}

// SummarizeFileChunk produces a short description of one chunk of a source
// file. chunkIndex and totalChunks are 1-based; pass 1,1 for a whole file.
func (s *Summarizer) SummarizeFileChunk(ctx context.Context, path, content string, chunkIndex, totalChunks int) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty content for %s", path)
	}
	summary, err := s.generate(ctx, fileChunkPrompt(path, content, chunkIndex, totalChunks))
	if err != nil {
		return "", fmt.Errorf("summarize %s (chunk %d/%d): %w", path, chunkIndex, totalChunks, err)
	}
	return summary, nil
}

// Combine merges multiple chunk summaries into one file-level summary.
// A single summary passes through unchanged. On model failure the partial
// summaries are concatenated under per-part headers; partial work is never
// dropped.
func (s *Summarizer) Combine(ctx context.Context, summaries []string, identifier string) string {
	if len(summaries) == 0 {
		return ""
	}
	if len(summaries) == 1 {
		return summaries[0]
	}

	combined, err := s.generate(ctx, combinePrompt(summaries, identifier))
	if err != nil {
		slog.Warn("summary combination fell back", "file", identifier, "error", err)
		return concatSummaries(summaries)
	}
	return combined
}

// generate runs one prompt through the model with retry, rejecting empty or
// implausibly short output.
func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	return batch.Retry(ctx, s.retry, func(ctx context.Context) (string, error) {
		text, err := s.ai.GenerateText(ctx, prompt, port.GenerateOptions{Temperature: 0.3})
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if len(text) < minSummaryChars {
			// Treat junk output like a flaky service so the retry
			// path gets another attempt at a real answer.
			return "", &port.ExternalServiceError{Service: "gemini", Transient: true, Err: errShortSummary}
		}
		return text, nil
	})
}

func cacheKey(detail domain.CommitDetail) string {
	msg := detail.Message
	if runes := []rune(msg); len(runes) > cacheKeyPrefixLen {
		msg = string(runes[:cacheKeyPrefixLen])
	}
	return detail.Hash + "|" + msg
}

func concatSummaries(summaries []string) string {
	var sb strings.Builder
	for i, part := range summaries {
		fmt.Fprintf(&sb, "Part %d/%d:\n%s", i+1, len(summaries), strings.TrimSpace(part))
		if i < len(summaries)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
