package domain

import "time"

// SourceEmbedding is a persisted per-file record: raw source, generated
// summary, and the summary's embedding vector. The vector is empty when
// embedding failed; the summary is kept anyway. At most one exists per
// (project, file path).
type SourceEmbedding struct {
	ID          string    `json:"id"           db:"id"`
	ProjectID   string    `json:"project_id"   db:"project_id"`
	FilePath    string    `json:"file_path"    db:"file_path"`
	Source      string    `json:"source"       db:"source"`
	Summary     string    `json:"summary"      db:"summary"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	Vector      []float32 `json:"-"            db:"vector"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// FileReference is returned by similarity search: a ranked pointer into the
// indexed codebase used for answer provenance.
type FileReference struct {
	FilePath   string  `json:"file_path"`
	Summary    string  `json:"summary"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}
