package domain

// Sync statuses returned by bulk ingestion operations.
const (
	SyncCompleted           = "completed"
	SyncCompletedWithErrors = "completed_with_errors"
	SyncFailed              = "failed"
)

// SyncResult summarizes a bulk sync run. Item-level failures are recorded
// in Errors and never abort the run.
type SyncResult struct {
	Status              string   `json:"status"`
	ProjectsSynced      []string `json:"projects_synced,omitempty"`
	AuthorsSynced       []string `json:"authors_synced,omitempty"`
	IssuesSynced        int      `json:"issues_synced"`
	IssuesCreated       int      `json:"issues_created"`
	IssuesUpdated       int      `json:"issues_updated"`
	PRsSynced           int      `json:"prs_synced"`
	EmbeddingsGenerated int      `json:"embeddings_generated"`
	Errors              []string `json:"errors"`
	DurationSeconds     float64  `json:"sync_duration_seconds"`
}
