package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/resourceiq/devmatch/internal/domain"
)

// VectorStore handles pgvector-specific operations for PR and issue embeddings.
// All similarity queries use exact L2 distance (<->) with insertion id as the
// stable tie-break, so ordering is deterministic for a fixed store snapshot.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// Dimension returns the fixed vector dimension of the store.
func (v *VectorStore) Dimension() int {
	return v.dimension
}

// UpsertPRVector inserts or replaces a PR embedding by pr_id; never duplicates.
func (v *VectorStore) UpsertPRVector(ctx context.Context, e *domain.PRVector) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal pr metadata: %w", err)
	}

	query := `
		INSERT INTO github_pr_vectors
			(pr_id, pr_number, author_login, author_id, repo_name, pr_title, pr_url,
			 pr_description, embedding, context, metadata_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector, $10, $11)
		ON CONFLICT (pr_id) DO UPDATE SET
			pr_title       = EXCLUDED.pr_title,
			pr_url         = EXCLUDED.pr_url,
			pr_description = EXCLUDED.pr_description,
			embedding      = EXCLUDED.embedding,
			context        = EXCLUDED.context,
			metadata_json  = EXCLUDED.metadata_json,
			updated_at     = NOW()`

	_, err = v.store.db.ExecContext(ctx, query,
		e.PRID, e.PRNumber, e.AuthorLogin, e.AuthorID, e.RepoName, e.PRTitle, e.PRURL,
		e.PRDescription, vectorToString(e.Vector), e.Context, metadata,
	)
	if err != nil {
		return fmt.Errorf("upsert pr vector: %w", err)
	}
	return nil
}

// UpsertIssueVector inserts or replaces an issue embedding by issue_id.
func (v *VectorStore) UpsertIssueVector(ctx context.Context, e *domain.IssueVector) error {
	query := `
		INSERT INTO jira_issue_vectors
			(issue_id, issue_key, project_key, issue_url, assignee_account_id, embedding, context)
		VALUES ($1, $2, $3, $4, $5, $6::vector, $7)
		ON CONFLICT (issue_id) DO UPDATE SET
			issue_key           = EXCLUDED.issue_key,
			project_key         = EXCLUDED.project_key,
			issue_url           = EXCLUDED.issue_url,
			assignee_account_id = EXCLUDED.assignee_account_id,
			embedding           = EXCLUDED.embedding,
			context             = EXCLUDED.context,
			updated_at          = NOW()`

	_, err := v.store.db.ExecContext(ctx, query,
		e.IssueID, e.IssueKey, e.ProjectKey, e.IssueURL,
		nullIfEmpty(e.AssigneeAccountID), vectorToString(e.Vector), e.Context,
	)
	if err != nil {
		return fmt.Errorf("upsert issue vector: %w", err)
	}
	return nil
}

// SearchSimilarPRs returns PR vectors ordered by ascending L2 distance to the
// query vector, optionally restricted to one author login.
func (v *VectorStore) SearchSimilarPRs(ctx context.Context, queryVector []float32, limit int, authorLogin string) ([]domain.SimilarPR, error) {
	query := `SELECT id, pr_id, pr_number, author_login, author_id, COALESCE(repo_name, ''),
	                 pr_title, COALESCE(pr_url, ''), COALESCE(pr_description, ''), context, created_at,
	                 embedding <-> $1::vector AS distance
	          FROM github_pr_vectors
	          WHERE ($2 = '' OR author_login = $2)
	          ORDER BY embedding <-> $1::vector, id
	          LIMIT $3`

	rows, err := v.store.db.QueryContext(ctx, query, vectorToString(queryVector), authorLogin, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar prs: %w", err)
	}
	defer rows.Close()

	var results []domain.SimilarPR
	for rows.Next() {
		var sp domain.SimilarPR
		if err := rows.Scan(
			&sp.ID, &sp.PRID, &sp.PRNumber, &sp.AuthorLogin, &sp.AuthorID, &sp.RepoName,
			&sp.PRTitle, &sp.PRURL, &sp.PRDescription, &sp.Context, &sp.CreatedAt,
			&sp.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan similar pr: %w", err)
		}
		results = append(results, sp)
	}
	return results, rows.Err()
}

// SearchSimilarIssues returns issue vectors ordered by ascending L2 distance
// to the query vector, with optional project and assignee equality filters.
func (v *VectorStore) SearchSimilarIssues(ctx context.Context, queryVector []float32, limit int, projectKey, assigneeAccountID string) ([]domain.SimilarIssue, error) {
	query := `SELECT id, issue_id, issue_key, project_key, COALESCE(issue_url, ''),
	                 COALESCE(assignee_account_id, ''), context, created_at,
	                 embedding <-> $1::vector AS distance
	          FROM jira_issue_vectors
	          WHERE ($2 = '' OR project_key = $2)
	            AND ($3 = '' OR assignee_account_id = $3)
	          ORDER BY embedding <-> $1::vector, id
	          LIMIT $4`

	rows, err := v.store.db.QueryContext(ctx, query, vectorToString(queryVector), projectKey, assigneeAccountID, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar issues: %w", err)
	}
	defer rows.Close()

	var results []domain.SimilarIssue
	for rows.Next() {
		var si domain.SimilarIssue
		if err := rows.Scan(
			&si.ID, &si.IssueID, &si.IssueKey, &si.ProjectKey, &si.IssueURL,
			&si.AssigneeAccountID, &si.Context, &si.CreatedAt,
			&si.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan similar issue: %w", err)
		}
		results = append(results, si)
	}
	return results, rows.Err()
}

// ListPRVectorsByAuthor returns the author's most recent PR vectors (pr_id
// descending), embeddings included, capped at limit.
func (v *VectorStore) ListPRVectorsByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.PRVector, error) {
	query := `SELECT id, pr_id, pr_number, author_login, author_id, COALESCE(repo_name, ''),
	                 pr_title, COALESCE(pr_url, ''), COALESCE(pr_description, ''), embedding::text, context
	          FROM github_pr_vectors
	          WHERE author_id = $1
	          ORDER BY pr_id DESC
	          LIMIT $2`

	rows, err := v.store.db.QueryContext(ctx, query, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pr vectors: %w", err)
	}
	defer rows.Close()

	var vectors []domain.PRVector
	for rows.Next() {
		var p domain.PRVector
		var embedding string
		if err := rows.Scan(
			&p.ID, &p.PRID, &p.PRNumber, &p.AuthorLogin, &p.AuthorID, &p.RepoName,
			&p.PRTitle, &p.PRURL, &p.PRDescription, &embedding, &p.Context,
		); err != nil {
			return nil, fmt.Errorf("scan pr vector: %w", err)
		}
		p.Vector, err = parseVector(embedding)
		if err != nil {
			return nil, fmt.Errorf("parse pr vector: %w", err)
		}
		vectors = append(vectors, p)
	}
	return vectors, rows.Err()
}

// ListIssueVectorsByAssignee returns the assignee's most recent issue vectors
// (insertion id descending), embeddings included, capped at limit.
func (v *VectorStore) ListIssueVectorsByAssignee(ctx context.Context, accountID string, limit int) ([]domain.IssueVector, error) {
	query := `SELECT id, issue_id, issue_key, project_key, COALESCE(issue_url, ''),
	                 COALESCE(assignee_account_id, ''), embedding::text, context
	          FROM jira_issue_vectors
	          WHERE assignee_account_id = $1
	          ORDER BY id DESC
	          LIMIT $2`

	rows, err := v.store.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list issue vectors: %w", err)
	}
	defer rows.Close()

	var vectors []domain.IssueVector
	for rows.Next() {
		var iv domain.IssueVector
		var embedding string
		if err := rows.Scan(
			&iv.ID, &iv.IssueID, &iv.IssueKey, &iv.ProjectKey, &iv.IssueURL,
			&iv.AssigneeAccountID, &embedding, &iv.Context,
		); err != nil {
			return nil, fmt.Errorf("scan issue vector: %w", err)
		}
		iv.Vector, err = parseVector(embedding)
		if err != nil {
			return nil, fmt.Errorf("parse issue vector: %w", err)
		}
		vectors = append(vectors, iv)
	}
	return vectors, rows.Err()
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector converts pgvector string format back into a float32 slice.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal %q", truncateForError(s))
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return nil, nil
	}

	parts := strings.Split(inner, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func truncateForError(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
