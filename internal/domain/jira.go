package domain

import "time"

// JiraUser is a Jira account as returned by the user search API.
type JiraUser struct {
	AccountID    string `json:"account_id"`
	DisplayName  string `json:"display_name,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Active       bool   `json:"active"`
}

// JiraComment is a single issue comment.
type JiraComment struct {
	ID      string     `json:"id"`
	Author  JiraUser   `json:"author"`
	Body    string     `json:"body"`
	Created time.Time  `json:"created"`
	Updated *time.Time `json:"updated,omitempty"`
}

// Issue is the narrow slice of a Jira issue the engine consumes.
// Context holds the plain-text summary built for embedding.
type Issue struct {
	IssueID     string        `json:"issue_id"`
	IssueKey    string        `json:"issue_key"`
	ProjectKey  string        `json:"project_key"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	IssueType   string        `json:"issue_type"`
	Status      string        `json:"status"`
	Priority    string        `json:"priority,omitempty"`
	Labels      []string      `json:"labels,omitempty"`
	Assignee    *JiraUser     `json:"assignee,omitempty"`
	Reporter    *JiraUser     `json:"reporter,omitempty"`
	IssueURL    string        `json:"issue_url"`
	Comments    []JiraComment `json:"comments,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	Context     string        `json:"context,omitempty"`
}

// StoredIssue is a synced Jira issue row kept for workload computation.
type StoredIssue struct {
	ID                  int64      `json:"id"                    db:"id"`
	IssueID             string     `json:"issue_id"              db:"issue_id"`
	IssueKey            string     `json:"issue_key"             db:"issue_key"`
	ProjectKey          string     `json:"project_key"           db:"project_key"`
	Summary             string     `json:"summary"               db:"summary"`
	Description         string     `json:"description"           db:"description"`
	IssueType           string     `json:"issue_type"            db:"issue_type"`
	Status              string     `json:"status"                db:"status"`
	Priority            string     `json:"priority"              db:"priority"`
	Labels              string     `json:"labels"                db:"labels"` // comma-joined
	AssigneeAccountID   string     `json:"assignee_account_id"   db:"assignee_account_id"`
	AssigneeDisplayName string     `json:"assignee_display_name" db:"assignee_display_name"`
	AssigneeEmail       string     `json:"assignee_email"        db:"assignee_email"`
	ReporterAccountID   string     `json:"reporter_account_id"   db:"reporter_account_id"`
	ReporterDisplayName string     `json:"reporter_display_name" db:"reporter_display_name"`
	IssueURL            string     `json:"issue_url"             db:"issue_url"`
	JiraCreatedAt       *time.Time `json:"jira_created_at"       db:"jira_created_at"`
	JiraUpdatedAt       *time.Time `json:"jira_updated_at"       db:"jira_updated_at"`
	JiraResolvedAt      *time.Time `json:"jira_resolved_at"      db:"jira_resolved_at"`
	CreatedAt           time.Time  `json:"created_at"            db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"            db:"updated_at"`
}

// DeveloperWorkload is a weighted snapshot of a developer's active issues.
type DeveloperWorkload struct {
	JiraAccountID       string    `json:"jira_account_id"`
	DisplayName         string    `json:"display_name,omitempty"`
	Email               string    `json:"email,omitempty"`
	OpenIssues          int       `json:"open_issues"`
	InProgressIssues    int       `json:"in_progress_issues"`
	InReviewIssues      int       `json:"in_review_issues"`
	TotalActiveIssues   int       `json:"total_active_issues"`
	HighPriorityCount   int       `json:"high_priority_count"`
	MediumPriorityCount int       `json:"medium_priority_count"`
	LowPriorityCount    int       `json:"low_priority_count"`
	BugsCount           int       `json:"bugs_count"`
	TasksCount          int       `json:"tasks_count"`
	StoriesCount        int       `json:"stories_count"`
	OtherCount          int       `json:"other_count"`
	WorkloadScore       float64   `json:"workload_score"`
	LastUpdated         time.Time `json:"last_updated"`
}

// DeveloperProfile links a Jira account to a GitHub identity and caches workload.
type DeveloperProfile struct {
	UserID            string     `json:"user_id"             db:"id"`
	JiraAccountID     string     `json:"jira_account_id"     db:"jira_account_id"`
	JiraDisplayName   string     `json:"jira_display_name"   db:"jira_display_name"`
	JiraEmail         string     `json:"jira_email"          db:"jira_email"`
	GitHubLogin       string     `json:"github_login"        db:"github_login"`
	GitHubID          int64      `json:"github_id"           db:"github_id"` // 0 = not linked
	CurrentWorkload   int        `json:"current_workload"    db:"current_workload"`
	WorkloadScore     float64    `json:"workload_score"      db:"workload_score"`
	WorkloadUpdatedAt *time.Time `json:"workload_updated_at" db:"workload_updated_at"`
	CreatedAt         time.Time  `json:"created_at"          db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"          db:"updated_at"`
}
