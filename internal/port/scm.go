package port

import (
	"context"

	"github.com/dharnesh67/neurohub/internal/domain"
)

// SCMProvider abstracts the source-control host API. Implementations handle
// commit listing, per-commit diff statistics, and recursive file loading.
type SCMProvider interface {
	// WithToken returns a provider scoped to the given repository access
	// token. An empty token keeps the provider's own credentials, so
	// public repositories and the host-wide token keep working unchanged.
	WithToken(token string) SCMProvider

	// ListCommits returns up to limit most recent commits, newest first.
	ListCommits(ctx context.Context, owner, repo string, limit int) ([]domain.CommitSummary, error)

	// GetCommitStats returns the diff statistics for a single commit.
	GetCommitStats(ctx context.Context, owner, repo, hash string) (domain.CommitStats, error)

	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// ListFiles returns all blob paths in the repository tree at ref.
	ListFiles(ctx context.Context, owner, repo, ref string) ([]string, error)

	// ReadFile returns the decoded content of a single file at ref.
	ReadFile(ctx context.Context, owner, repo, ref, path string) (string, error)
}
