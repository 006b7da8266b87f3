package domain

import "time"

// Commit is a persisted, summarized commit. At most one exists per
// (project, hash).
type Commit struct {
	ID           string    `json:"id"            db:"id"`
	ProjectID    string    `json:"project_id"    db:"project_id"`
	Hash         string    `json:"hash"          db:"commit_hash"`
	Message      string    `json:"message"       db:"message"`
	AuthorName   string    `json:"author_name"   db:"author_name"`
	AuthorAvatar string    `json:"author_avatar" db:"author_avatar"`
	CommitDate   time.Time `json:"commit_date"   db:"commit_date"`
	Summary      string    `json:"summary"       db:"summary"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}

// CommitSummary is one entry from the host's commit listing, before
// enrichment and persistence.
type CommitSummary struct {
	Hash         string    `json:"hash"`
	Message      string    `json:"message"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar"`
	CommitDate   time.Time `json:"commit_date"`
}

// CommitStats is the per-commit diff breakdown fetched separately from the
// listing.
type CommitStats struct {
	FilesChanged []string `json:"files_changed"`
	Additions    int      `json:"additions"`
	Deletions    int      `json:"deletions"`
}

// CommitDetail pairs a listed commit with its diff stats for summarization.
// Stats may be zero-valued when the stats fetch failed.
type CommitDetail struct {
	CommitSummary
	CommitStats
}
