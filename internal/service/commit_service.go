package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dharnesh67/neurohub/internal/batch"
	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/port"
	"github.com/dharnesh67/neurohub/internal/summarizer"
)

// ParseRepoURLFunc resolves a repository URL into owner and repo.
type ParseRepoURLFunc func(repoURL string) (owner, repo string, err error)

// PullResult reports one commit-ingestion run.
type PullResult struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// CommitService ingests repository commit history: it lists recent commits
// from the host, filters out already-processed hashes, enriches the rest
// with diff statistics, summarizes them and persists the records.
type CommitService struct {
	projects   port.ProjectStore
	commits    port.CommitStore
	scm        port.SCMProvider
	summarizer *summarizer.Summarizer
	parseURL   ParseRepoURLFunc
	maxCommits int
	retry      batch.RetryConfig
	batchOpts  batch.Options
}

// NewCommitService creates a commit ingestor.
func NewCommitService(
	projects port.ProjectStore,
	commits port.CommitStore,
	scm port.SCMProvider,
	sum *summarizer.Summarizer,
	parseURL ParseRepoURLFunc,
	maxCommits int,
	retry batch.RetryConfig,
	batchOpts batch.Options,
) *CommitService {
	if maxCommits <= 0 {
		maxCommits = 30
	}
	return &CommitService{
		projects:   projects,
		commits:    commits,
		scm:        scm,
		summarizer: sum,
		parseURL:   parseURL,
		maxCommits: maxCommits,
		retry:      retry,
		batchOpts:  batchOpts,
	}
}

// PullCommits ingests a project's unseen commits. Re-runs with no new
// upstream commits are no-ops: Processed is 0 and nothing is written.
// A host failure while listing commits is fatal for the run; per-commit
// failures in stats fetching or summarization are isolated and the commit
// still lands with degraded data.
func (s *CommitService) PullCommits(ctx context.Context, projectID string) (*PullResult, error) {
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

	upstream, err := batch.Retry(ctx, s.retry, func(ctx context.Context) ([]domain.CommitSummary, error) {
		return scm.ListCommits(ctx, owner, repo, s.maxCommits)
	})
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	if len(upstream) == 0 {
		slog.Info("no commits found", "project_id", projectID, "repo", owner+"/"+repo)
		return &PullResult{}, nil
	}

	unseen, err := s.filterUnprocessed(ctx, projectID, upstream)
	if err != nil {
		return nil, err
	}
	if len(unseen) == 0 {
		slog.Info("no new commits", "project_id", projectID, "total", len(upstream))
		return &PullResult{Total: len(upstream)}, nil
	}

	slog.Info("processing commits", "project_id", projectID, "unseen", len(unseen), "total", len(upstream))

	// Stats fetching is a second round-trip per commit; it goes through
	// the batch runner so bursts stay under the host's rate limits.
	results, err := batch.Run(ctx, unseen, s.batchOpts, func(ctx context.Context, c domain.CommitSummary) (domain.Commit, error) {
		detail := domain.CommitDetail{CommitSummary: c}

		stats, statErr := batch.Retry(ctx, s.retry, func(ctx context.Context) (domain.CommitStats, error) {
			return scm.GetCommitStats(ctx, owner, repo, c.Hash)
		})
		if statErr != nil {
			slog.Warn("commit stats unavailable", "hash", c.Hash, "error", statErr)
		} else {
			detail.CommitStats = stats
		}

		return domain.Commit{
			ProjectID:    projectID,
			Hash:         c.Hash,
			Message:      c.Message,
			AuthorName:   c.AuthorName,
			AuthorAvatar: c.AuthorAvatar,
			CommitDate:   c.CommitDate,
			Summary:      s.summarizer.SummarizeCommit(ctx, detail),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	var toInsert []domain.Commit
	for _, r := range results {
		if r.Err != nil {
			slog.Error("commit processing failed", "error", r.Err)
			continue
		}
		toInsert = append(toInsert, r.Value)
	}

	inserted, err := s.commits.InsertCommits(ctx, toInsert)
	if err != nil {
		return nil, err
	}

	slog.Info("commits ingested", "project_id", projectID, "inserted", inserted, "total", len(upstream))
	return &PullResult{Processed: inserted, Total: len(upstream)}, nil
}

func (s *CommitService) filterUnprocessed(ctx context.Context, projectID string, upstream []domain.CommitSummary) ([]domain.CommitSummary, error) {
	hashes, err := s.commits.ListCommitHashes(ctx, projectID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		seen[h] = struct{}{}
	}

	var unseen []domain.CommitSummary
	for _, c := range upstream {
		if _, ok := seen[c.Hash]; !ok {
			unseen = append(unseen, c)
		}
	}
	return unseen, nil
}
