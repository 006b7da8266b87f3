package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dharnesh67/neurohub/internal/batch"
	"github.com/dharnesh67/neurohub/internal/chunker"
	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/embedder"
	"github.com/dharnesh67/neurohub/internal/port"
	"github.com/dharnesh67/neurohub/internal/summarizer"
)

// IndexResult reports one repository-indexing run.
type IndexResult struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// fileOutcome is the per-file verdict inside an indexing run.
type fileOutcome int

const (
	outcomeIndexed fileOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// IndexService loads a repository's files and runs each through the
// chunk, summarize, combine, embed pipeline, persisting one record per
// (project, file path).
type IndexService struct {
	projects   port.ProjectStore
	embeddings port.EmbeddingStore
	scm        port.SCMProvider
	summarizer *summarizer.Summarizer
	embedder   *embedder.Embedder
	parseURL   ParseRepoURLFunc

	chunkSize    int
	chunkOverlap int
	exclude      []string
	retry        batch.RetryConfig
	batchOpts    batch.Options

	locks *projectLocks
}

// NewIndexService creates a repository indexer.
func NewIndexService(
	projects port.ProjectStore,
	embeddings port.EmbeddingStore,
	scm port.SCMProvider,
	sum *summarizer.Summarizer,
	emb *embedder.Embedder,
	parseURL ParseRepoURLFunc,
	chunkSize, chunkOverlap int,
	exclude []string,
	retry batch.RetryConfig,
	batchOpts batch.Options,
) *IndexService {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	return &IndexService{
		projects:     projects,
		embeddings:   embeddings,
		scm:          scm,
		summarizer:   sum,
		embedder:     emb,
		parseURL:     parseURL,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		exclude:      exclude,
		retry:        retry,
		batchOpts:    batchOpts,
		locks:        newProjectLocks(),
	}
}

// IndexRepository loads all repository files (minus the denylist), indexes
// the new or changed ones and records per-file success/failure counters.
// A per-file failure never aborts the remaining files. An unchanged
// repository indexes to Indexed == 0.
//
// At most one run per project is allowed; concurrent triggers get
// port.ErrIndexInProgress.
func (s *IndexService) IndexRepository(ctx context.Context, projectID string) (*IndexResult, error) {
	if !s.locks.TryAcquire(projectID) {
		return nil, port.ErrIndexInProgress
	}
	defer s.locks.Release(projectID)

	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	if project.RepoURL == "" {
		return nil, &port.ConfigurationError{Field: "repo_url", Reason: "not set for project"}
	}

	owner, repo, err := s.parseURL(project.RepoURL)
	if err != nil {
		return nil, err
	}

	// Private repositories carry their own token; public ones fall back
	// to the host-wide credentials.
	scm := s.scm.WithToken(project.AccessToken)

	ref, err := batch.Retry(ctx, s.retry, func(ctx context.Context) (string, error) {
		return scm.DefaultBranch(ctx, owner, repo)
	})
	if err != nil {
		return nil, fmt.Errorf("default branch: %w", err)
	}

	paths, err := batch.Retry(ctx, s.retry, func(ctx context.Context) ([]string, error) {
		return scm.ListFiles(ctx, owner, repo, ref)
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var included []string
	for _, p := range paths {
		if !s.excluded(p) {
			included = append(included, p)
		}
	}

	slog.Info("indexing repository",
		"project_id", projectID, "repo", owner+"/"+repo, "ref", ref,
		"files", len(included), "excluded", len(paths)-len(included))

	results, err := batch.Run(ctx, included, s.batchOpts, func(ctx context.Context, path string) (fileOutcome, error) {
		return s.indexFile(ctx, scm, projectID, owner, repo, ref, path)
	})
	if err != nil {
		return nil, err
	}

	result := &IndexResult{}
	for _, r := range results {
		switch {
		case r.Err != nil:
			slog.Error("file indexing failed", "project_id", projectID, "error", r.Err)
			result.Failed++
		case r.Value == outcomeSkipped:
			result.Skipped++
		default:
			result.Indexed++
		}
	}

	slog.Info("indexing complete", "project_id", projectID,
		"indexed", result.Indexed, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// indexFile runs one file through the pipeline. Files whose content hash is
// unchanged are skipped, keeping repeated runs idempotent while still
// refreshing stale records.
func (s *IndexService) indexFile(ctx context.Context, scm port.SCMProvider, projectID, owner, repo, ref, path string) (fileOutcome, error) {
	content, err := batch.Retry(ctx, s.retry, func(ctx context.Context) (string, error) {
		return scm.ReadFile(ctx, owner, repo, ref, path)
	})
	if err != nil {
		return outcomeFailed, fmt.Errorf("load %s: %w", path, err)
	}
	if strings.TrimSpace(content) == "" {
		return outcomeSkipped, nil
	}

	hash := contentHash(content)
	stored, exists, err := s.embeddings.GetContentHash(ctx, projectID, path)
	if err != nil {
		return outcomeFailed, err
	}
	if exists && stored == hash {
		return outcomeSkipped, nil
	}

	summary := s.summarizeFile(ctx, path, content)
	vector := s.embedder.Embed(ctx, summary)

	// A summary with a null vector is still worth keeping; only a file
	// with neither is a loss.
	if summary == "" && len(vector) == 0 {
		return outcomeFailed, fmt.Errorf("no summary or embedding for %s", path)
	}

	record := &domain.SourceEmbedding{
		ProjectID:   projectID,
		FilePath:    path,
		Source:      content,
		Summary:     summary,
		ContentHash: hash,
		Vector:      vector,
	}
	if err := s.embeddings.UpsertSourceEmbedding(ctx, record); err != nil {
		return outcomeFailed, err
	}
	return outcomeIndexed, nil
}

// summarizeFile chunks the content, summarizes each chunk and combines the
// partial summaries. The deterministic fallback guarantees a description
// even with the model fully unavailable.
func (s *IndexService) summarizeFile(ctx context.Context, path, content string) string {
	chunks := chunker.Chunk(content, s.chunkSize, s.chunkOverlap)

	var parts []string
	for i, chunk := range chunks {
		part, err := s.summarizer.SummarizeFileChunk(ctx, path, chunk, i+1, len(chunks))
		if err != nil {
			slog.Warn("chunk summarization failed", "file", path, "chunk", i+1, "error", err)
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return summarizer.FallbackFileSummary(path, content)
	}
	return s.summarizer.Combine(ctx, parts, path)
}

func (s *IndexService) excluded(path string) bool {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	for _, pattern := range s.exclude {
		if strings.HasSuffix(pattern, "/") {
			if strings.HasPrefix(path, pattern) || strings.Contains(path, "/"+pattern) {
				return true
			}
			continue
		}
		if base == pattern || strings.HasPrefix(base, pattern+".") {
			return true
		}
	}
	return false
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
