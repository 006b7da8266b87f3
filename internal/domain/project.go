package domain

import "time"

// Project is a registered repository tracked by the ingestion pipeline.
// AccessToken is accepted on registration for private repositories and is
// never serialized back out.
type Project struct {
	ID          string     `json:"id"         db:"id"`
	Name        string     `json:"name"       db:"name"`
	RepoURL     string     `json:"repo_url"   db:"repo_url"`
	AccessToken string     `json:"-"          db:"access_token"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ProjectStats aggregates what has been ingested for one project.
type ProjectStats struct {
	CommitCount int `json:"commit_count"`
	FileCount   int `json:"file_count"`
}
