package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrIndexInProgress = errors.New("indexing already in progress for this project")
)

// ConfigurationError reports a missing or invalid project configuration,
// such as a repository URL that does not point at a known host. It is never
// retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ExternalServiceError reports a failure of the source-control host or the
// LLM backend. Transient failures (rate limiting, service unavailable,
// network resets) are retried with backoff; permanent ones surface after a
// single attempt.
type ExternalServiceError struct {
	Service   string
	Status    int
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s failure (status %d): %v", e.Service, kind, e.Status, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// EmbeddingError reports a vector of the wrong dimensionality, or an empty
// vector where one was required. Fatal for the operation that needed it only.
type EmbeddingError struct {
	Want int
	Got  int
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// PersistenceError reports a failed read or write against the store.
// It always propagates: dropping data silently would break the idempotent
// indexing invariant.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsTransient reports whether err is an external-service failure worth
// retrying.
func IsTransient(err error) bool {
	var ext *ExternalServiceError
	return errors.As(err, &ext) && ext.Transient
}
