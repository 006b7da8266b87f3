// Package store persists projects, commits and file embeddings in Postgres
// with the pgvector extension.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context, dimension int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			repo_url TEXT NOT NULL,
			access_token TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS commits (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			commit_hash TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			author_name TEXT NOT NULL DEFAULT '',
			author_avatar TEXT NOT NULL DEFAULT '',
			commit_date TIMESTAMPTZ NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (project_id, commit_hash)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS source_embeddings (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			file_path TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			vector vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (project_id, file_path)
		)`, dimension),
		`CREATE INDEX IF NOT EXISTS idx_commits_project_date ON commits (project_id, commit_date DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &port.PersistenceError{Op: "migrate", Err: err}
		}
	}
	return nil
}

// --- Projects ---

// CreateProject inserts a new project record.
func (s *PostgresStore) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	query := `INSERT INTO projects (name, repo_url, access_token)
	          VALUES ($1, $2, $3)
	          RETURNING id, name, repo_url, access_token, created_at, updated_at`

	var project domain.Project
	err := s.db.QueryRowContext(ctx, query, p.Name, p.RepoURL, p.AccessToken).Scan(
		&project.ID, &project.Name, &project.RepoURL, &project.AccessToken,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, &port.PersistenceError{Op: "create project", Err: err}
	}
	return &project, nil
}

// GetProjectByID returns a non-deleted project by its ID.
func (s *PostgresStore) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT id, name, repo_url, access_token, created_at, updated_at
	          FROM projects WHERE id = $1 AND deleted_at IS NULL`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.RepoURL, &p.AccessToken, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProjectNotFound
	}
	if err != nil {
		return nil, &port.PersistenceError{Op: "get project", Err: err}
	}
	return &p, nil
}

// ListProjects returns all non-deleted projects, newest first.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	query := `SELECT id, name, repo_url, access_token, created_at, updated_at
	          FROM projects WHERE deleted_at IS NULL ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &port.PersistenceError{Op: "list projects", Err: err}
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.RepoURL, &p.AccessToken, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, &port.PersistenceError{Op: "scan project", Err: err}
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject soft-deletes a project. Pipeline records stay until the row
// is purged, at which point the foreign keys cascade.
func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return &port.PersistenceError{Op: "delete project", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrProjectNotFound
	}
	return nil
}

// --- Commits ---

// ListCommitHashes returns all persisted commit hashes for a project.
func (s *PostgresStore) ListCommitHashes(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT commit_hash FROM commits WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, &port.PersistenceError{Op: "list commit hashes", Err: err}
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, &port.PersistenceError{Op: "scan commit hash", Err: err}
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// ListCommits returns a project's commits sorted by commit date descending.
// Insertion order is batch order, not chronological, so consumers always
// sort here.
func (s *PostgresStore) ListCommits(ctx context.Context, projectID string) ([]domain.Commit, error) {
	query := `SELECT id, project_id, commit_hash, message, author_name, author_avatar,
	                 commit_date, summary, created_at
	          FROM commits WHERE project_id = $1 ORDER BY commit_date DESC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, &port.PersistenceError{Op: "list commits", Err: err}
	}
	defer rows.Close()

	var commits []domain.Commit
	for rows.Next() {
		var c domain.Commit
		if err := rows.Scan(
			&c.ID, &c.ProjectID, &c.Hash, &c.Message, &c.AuthorName,
			&c.AuthorAvatar, &c.CommitDate, &c.Summary, &c.CreatedAt,
		); err != nil {
			return nil, &port.PersistenceError{Op: "scan commit", Err: err}
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// InsertCommits persists commits, skipping ones that raced into existence
// concurrently. Returns the number actually inserted.
func (s *PostgresStore) InsertCommits(ctx context.Context, commits []domain.Commit) (int, error) {
	if len(commits) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &port.PersistenceError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO commits (project_id, commit_hash, message, author_name, author_avatar, commit_date, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (project_id, commit_hash) DO NOTHING`)
	if err != nil {
		return 0, &port.PersistenceError{Op: "prepare insert commits", Err: err}
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range commits {
		res, err := stmt.ExecContext(ctx,
			c.ProjectID, c.Hash, c.Message, c.AuthorName, c.AuthorAvatar, c.CommitDate, c.Summary)
		if err != nil {
			return 0, &port.PersistenceError{Op: "insert commit", Err: err}
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &port.PersistenceError{Op: "commit tx", Err: err}
	}
	return inserted, nil
}

// CountCommits returns the number of persisted commits for a project.
func (s *PostgresStore) CountCommits(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM commits WHERE project_id = $1`, projectID).Scan(&n)
	if err != nil {
		return 0, &port.PersistenceError{Op: "count commits", Err: err}
	}
	return n, nil
}
