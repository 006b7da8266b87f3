package port

import (
	"context"

	"github.com/dharnesh67/neurohub/internal/domain"
)

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error)
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// CommitStore persists commit records. Inserts are duplicate-safe: a commit
// that already exists for (project, hash) is skipped, not rewritten.
type CommitStore interface {
	ListCommitHashes(ctx context.Context, projectID string) ([]string, error)
	ListCommits(ctx context.Context, projectID string) ([]domain.Commit, error)
	InsertCommits(ctx context.Context, commits []domain.Commit) (int, error)
	CountCommits(ctx context.Context, projectID string) (int, error)
}

// EmbeddingStore persists file-summary embeddings and serves similarity
// search over them.
type EmbeddingStore interface {
	GetContentHash(ctx context.Context, projectID, filePath string) (string, bool, error)
	UpsertSourceEmbedding(ctx context.Context, e *domain.SourceEmbedding) error
	SearchSimilar(ctx context.Context, projectID string, vector []float32, limit int) ([]domain.FileReference, error)
	CountSourceEmbeddings(ctx context.Context, projectID string) (int, error)
}
