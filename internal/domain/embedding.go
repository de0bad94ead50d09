package domain

import "time"

// PRVector is a pull request context with its embedding, stored in pgvector.
// The vector always has exactly the configured dimension.
type PRVector struct {
	ID            int64          `json:"id"             db:"id"`
	PRID          string         `json:"pr_id"          db:"pr_id"`
	PRNumber      int            `json:"pr_number"      db:"pr_number"`
	AuthorLogin   string         `json:"author_login"   db:"author_login"`
	AuthorID      int64          `json:"author_id"      db:"author_id"`
	RepoName      string         `json:"repo_name"      db:"repo_name"`
	PRTitle       string         `json:"pr_title"       db:"pr_title"`
	PRURL         string         `json:"pr_url"         db:"pr_url"`
	PRDescription string         `json:"pr_description" db:"pr_description"`
	Vector        []float32      `json:"-"              db:"embedding"`
	Context       string         `json:"context"        db:"context"`
	Metadata      map[string]any `json:"metadata"       db:"metadata_json"`
	CreatedAt     time.Time      `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"     db:"updated_at"`
}

// IssueVector is a Jira issue context with its embedding, stored in pgvector.
type IssueVector struct {
	ID                int64     `json:"id"                  db:"id"`
	IssueID           string    `json:"issue_id"            db:"issue_id"`
	IssueKey          string    `json:"issue_key"           db:"issue_key"`
	ProjectKey        string    `json:"project_key"         db:"project_key"`
	IssueURL          string    `json:"issue_url"           db:"issue_url"`
	AssigneeAccountID string    `json:"assignee_account_id" db:"assignee_account_id"`
	Vector            []float32 `json:"-"                   db:"embedding"`
	Context           string    `json:"context"             db:"context"`
	CreatedAt         time.Time `json:"created_at"          db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"          db:"updated_at"`
}

// SimilarPR is a PR vector returned by nearest-neighbor search, with the
// L2 distance to the query vector (smaller is closer).
type SimilarPR struct {
	PRVector
	Distance float64 `json:"distance"`
}

// SimilarIssue is an issue vector returned by nearest-neighbor search.
type SimilarIssue struct {
	IssueVector
	Distance float64 `json:"distance"`
}
