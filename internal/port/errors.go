package port

import (
	"errors"
	"fmt"
)

// Sentinel errors for missing integration configuration. These are fatal to
// the requested operation and are never retried.
var (
	ErrGitHubNotConfigured   = errors.New("github integration not configured")
	ErrJiraNotConfigured     = errors.New("jira integration not configured")
	ErrEmbedderNotConfigured = errors.New("embedding backend not configured")
)

// ProviderError reports a failed upstream API call (non-2xx, timeout,
// malformed response). Bulk callers recover by retrying per item or
// skipping the record.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

// ValidationError reports a caller-supplied parameter outside its
// contractual range. It is raised before any work begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DataError reports a malformed or incomplete source record. The single
// item is skipped and processing continues.
type DataError struct {
	Entity string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("bad record %s: %s", e.Entity, e.Reason)
}
