package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/resourceiq/devmatch/internal/domain"
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

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// --- Developer profiles ---

// UpsertDeveloperProfile inserts or updates a profile by jira_account_id.
// Zero-valued fields never overwrite existing linkage (COALESCE/NULLIF keep
// the stored GitHub identity when the update carries none).
func (s *PostgresStore) UpsertDeveloperProfile(ctx context.Context, p *domain.DeveloperProfile) (*domain.DeveloperProfile, error) {
	query := `
		INSERT INTO developer_profiles
			(id, jira_account_id, jira_display_name, jira_email, github_login, github_id,
			 current_workload, workload_score, workload_updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, 0), $7, $8, $9)
		ON CONFLICT (jira_account_id) DO UPDATE SET
			jira_display_name   = COALESCE(NULLIF(EXCLUDED.jira_display_name, ''), developer_profiles.jira_display_name),
			jira_email          = COALESCE(NULLIF(EXCLUDED.jira_email, ''), developer_profiles.jira_email),
			github_login        = COALESCE(EXCLUDED.github_login, developer_profiles.github_login),
			github_id           = COALESCE(EXCLUDED.github_id, developer_profiles.github_id),
			current_workload    = EXCLUDED.current_workload,
			workload_score      = EXCLUDED.workload_score,
			workload_updated_at = COALESCE(EXCLUDED.workload_updated_at, developer_profiles.workload_updated_at),
			updated_at          = NOW()
		RETURNING id, jira_account_id, COALESCE(jira_display_name, ''), COALESCE(jira_email, ''),
		          COALESCE(github_login, ''), COALESCE(github_id, 0),
		          current_workload, workload_score, workload_updated_at, created_at, updated_at`

	row := s.db.QueryRowContext(ctx, query,
		uuid.New().String(), p.JiraAccountID, p.JiraDisplayName, p.JiraEmail,
		p.GitHubLogin, p.GitHubID, p.CurrentWorkload, p.WorkloadScore, p.WorkloadUpdatedAt,
	)

	var out domain.DeveloperProfile
	err := row.Scan(
		&out.UserID, &out.JiraAccountID, &out.JiraDisplayName, &out.JiraEmail,
		&out.GitHubLogin, &out.GitHubID,
		&out.CurrentWorkload, &out.WorkloadScore, &out.WorkloadUpdatedAt,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert developer profile: %w", err)
	}
	return &out, nil
}

// ListDeveloperProfiles returns all developer profiles.
func (s *PostgresStore) ListDeveloperProfiles(ctx context.Context) ([]domain.DeveloperProfile, error) {
	query := `SELECT id, jira_account_id, COALESCE(jira_display_name, ''), COALESCE(jira_email, ''),
	                 COALESCE(github_login, ''), COALESCE(github_id, 0),
	                 current_workload, workload_score, workload_updated_at, created_at, updated_at
	          FROM developer_profiles ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list developer profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.DeveloperProfile
	for rows.Next() {
		var p domain.DeveloperProfile
		if err := rows.Scan(
			&p.UserID, &p.JiraAccountID, &p.JiraDisplayName, &p.JiraEmail,
			&p.GitHubLogin, &p.GitHubID,
			&p.CurrentWorkload, &p.WorkloadScore, &p.WorkloadUpdatedAt,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan developer profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// --- Jira issues ---

// UpsertIssue inserts or updates an issue by issue_id and reports whether a
// new row was created. Postgres sets xmax to 0 only on freshly inserted rows.
func (s *PostgresStore) UpsertIssue(ctx context.Context, issue *domain.StoredIssue) (bool, error) {
	query := `
		INSERT INTO jira_issues
			(issue_id, issue_key, project_key, summary, description, issue_type, status,
			 priority, labels, assignee_account_id, assignee_display_name, assignee_email,
			 reporter_account_id, reporter_display_name, issue_url,
			 jira_created_at, jira_updated_at, jira_resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (issue_id) DO UPDATE SET
			summary               = EXCLUDED.summary,
			description           = EXCLUDED.description,
			status                = EXCLUDED.status,
			priority              = EXCLUDED.priority,
			labels                = EXCLUDED.labels,
			assignee_account_id   = EXCLUDED.assignee_account_id,
			assignee_display_name = EXCLUDED.assignee_display_name,
			assignee_email        = EXCLUDED.assignee_email,
			jira_updated_at       = EXCLUDED.jira_updated_at,
			jira_resolved_at      = EXCLUDED.jira_resolved_at,
			updated_at            = NOW()
		RETURNING (xmax = 0) AS inserted`

	var created bool
	err := s.db.QueryRowContext(ctx, query,
		issue.IssueID, issue.IssueKey, issue.ProjectKey, issue.Summary, issue.Description,
		issue.IssueType, issue.Status, issue.Priority, issue.Labels,
		nullIfEmpty(issue.AssigneeAccountID), issue.AssigneeDisplayName, issue.AssigneeEmail,
		nullIfEmpty(issue.ReporterAccountID), issue.ReporterDisplayName, issue.IssueURL,
		issue.JiraCreatedAt, issue.JiraUpdatedAt, issue.JiraResolvedAt,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert issue: %w", err)
	}
	return created, nil
}

// ListIssuesByAssignee returns all synced issues assigned to the account.
func (s *PostgresStore) ListIssuesByAssignee(ctx context.Context, accountID string) ([]domain.StoredIssue, error) {
	query := `SELECT id, issue_id, issue_key, project_key, summary, COALESCE(description, ''),
	                 COALESCE(issue_type, ''), COALESCE(status, ''), COALESCE(priority, ''), COALESCE(labels, ''),
	                 COALESCE(assignee_account_id, ''), COALESCE(assignee_display_name, ''), COALESCE(assignee_email, ''),
	                 COALESCE(reporter_account_id, ''), COALESCE(reporter_display_name, ''), COALESCE(issue_url, ''),
	                 jira_created_at, jira_updated_at, jira_resolved_at, created_at, updated_at
	          FROM jira_issues WHERE assignee_account_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list issues by assignee: %w", err)
	}
	defer rows.Close()

	var issues []domain.StoredIssue
	for rows.Next() {
		var i domain.StoredIssue
		if err := rows.Scan(
			&i.ID, &i.IssueID, &i.IssueKey, &i.ProjectKey, &i.Summary, &i.Description,
			&i.IssueType, &i.Status, &i.Priority, &i.Labels,
			&i.AssigneeAccountID, &i.AssigneeDisplayName, &i.AssigneeEmail,
			&i.ReporterAccountID, &i.ReporterDisplayName, &i.IssueURL,
			&i.JiraCreatedAt, &i.JiraUpdatedAt, &i.JiraResolvedAt, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// ListAssigneeAccountIDs returns the distinct assignees across synced issues.
func (s *PostgresStore) ListAssigneeAccountIDs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT assignee_account_id FROM jira_issues WHERE assignee_account_id IS NOT NULL`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
