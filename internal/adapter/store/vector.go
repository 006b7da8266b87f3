package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pgvector/pgvector-go"

	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/port"
)

// VectorStore handles pgvector operations over the source_embeddings table.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// GetContentHash returns the stored content hash for (project, path) and
// whether a record exists.
func (v *VectorStore) GetContentHash(ctx context.Context, projectID, filePath string) (string, bool, error) {
	var hash string
	err := v.store.db.QueryRowContext(ctx,
		`SELECT content_hash FROM source_embeddings WHERE project_id = $1 AND file_path = $2`,
		projectID, filePath).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &port.PersistenceError{Op: "get content hash", Err: err}
	}
	return hash, true, nil
}

// UpsertSourceEmbedding persists a file record, replacing a stale one for
// the same (project, path). An empty vector is stored as NULL so a summary
// survives an embedding failure.
func (v *VectorStore) UpsertSourceEmbedding(ctx context.Context, e *domain.SourceEmbedding) error {
	var vec any
	if len(e.Vector) > 0 {
		vec = pgvector.NewVector(e.Vector)
	}

	query := `INSERT INTO source_embeddings (project_id, file_path, source, summary, content_hash, vector)
	          VALUES ($1, $2, $3, $4, $5, $6::vector)
	          ON CONFLICT (project_id, file_path) DO UPDATE SET
	              source = EXCLUDED.source,
	              summary = EXCLUDED.summary,
	              content_hash = EXCLUDED.content_hash,
	              vector = EXCLUDED.vector`

	_, err := v.store.db.ExecContext(ctx, query,
		e.ProjectID, e.FilePath, e.Source, e.Summary, e.ContentHash, vec)
	if err != nil {
		return &port.PersistenceError{Op: "upsert source embedding", Err: err}
	}
	return nil
}

// SearchSimilar performs a cosine similarity search over a project's
// non-null vectors, returning the top limit files ranked by similarity
// descending.
func (v *VectorStore) SearchSimilar(ctx context.Context, projectID string, vector []float32, limit int) ([]domain.FileReference, error) {
	query := `SELECT file_path, summary, source,
	                 1 - (vector <=> $1::vector) AS similarity
	          FROM source_embeddings
	          WHERE project_id = $2 AND vector IS NOT NULL
	          ORDER BY vector <=> $1::vector
	          LIMIT $3`

	rows, err := v.store.db.QueryContext(ctx, query, pgvector.NewVector(vector), projectID, limit)
	if err != nil {
		return nil, &port.PersistenceError{Op: "search similar", Err: err}
	}
	defer rows.Close()

	var refs []domain.FileReference
	for rows.Next() {
		var r domain.FileReference
		if err := rows.Scan(&r.FilePath, &r.Summary, &r.Source, &r.Similarity); err != nil {
			return nil, &port.PersistenceError{Op: "scan similar", Err: err}
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// CountSourceEmbeddings returns the number of indexed files for a project.
func (v *VectorStore) CountSourceEmbeddings(ctx context.Context, projectID string) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM source_embeddings WHERE project_id = $1`, projectID).Scan(&n)
	if err != nil {
		return 0, &port.PersistenceError{Op: "count source embeddings", Err: err}
	}
	return n, nil
}
