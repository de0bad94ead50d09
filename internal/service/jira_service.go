package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

const (
	// issueDescriptionLimit caps the DESCRIPTION section of an issue context.
	issueDescriptionLimit = 1500

	// maxContextComments bounds the KEY_COMMENTS section.
	maxContextComments = 3

	// commentSnippetLimit caps each comment included in KEY_COMMENTS.
	commentSnippetLimit = 200
)

// Workload weights. Priorities dominate, bugs and in-flight work add on top.
const (
	weightHighPriority   = 3.0
	weightMediumPriority = 2.0
	weightLowPriority    = 1.0
	weightBug            = 1.5
	weightInProgress     = 0.5
)

var (
	jiraMarkupRe  = regexp.MustCompile(`\{[^}]+\}`)
	jiraMentionRe = regexp.MustCompile(`\[~[^\]]+\]`)
)

// issueStore is the relational slice of the store the Jira service uses.
type issueStore interface {
	UpsertIssue(ctx context.Context, issue *domain.StoredIssue) (bool, error)
	ListIssuesByAssignee(ctx context.Context, accountID string) ([]domain.StoredIssue, error)
	ListAssigneeAccountIDs(ctx context.Context) ([]string, error)
	UpsertDeveloperProfile(ctx context.Context, p *domain.DeveloperProfile) (*domain.DeveloperProfile, error)
}

// issueVectorWriter is the slice of the vector store the Jira service uses.
type issueVectorWriter interface {
	UpsertIssueVector(ctx context.Context, e *domain.IssueVector) error
	SearchSimilarIssues(ctx context.Context, queryVector []float32, limit int, projectKey, assigneeAccountID string) ([]domain.SimilarIssue, error)
}

// SyncIssuesOptions controls a Jira sync run.
type SyncIssuesOptions struct {
	// ProjectKeys restricts the run to the given projects. Empty means all
	// accessible projects.
	ProjectKeys []string

	// MaxResultsPerProject caps issues fetched per project. Zero means the
	// provider default.
	MaxResultsPerProject int

	// IncludeClosed also syncs Done/Closed/Resolved issues.
	IncludeClosed bool
}

// JiraService syncs Jira issues into the relational and vector stores,
// maintains developer workload snapshots, and links GitHub identities.
type JiraService struct {
	jira       port.JiraProvider
	embeddings textEmbedder
	store      issueStore
	vectors    issueVectorWriter
}

// NewJiraService creates a Jira sync service.
func NewJiraService(jira port.JiraProvider, embeddings textEmbedder, store issueStore, vectors issueVectorWriter) *JiraService {
	return &JiraService{jira: jira, embeddings: embeddings, store: store, vectors: vectors}
}

// BuildIssueContext composes the plain-text context string used as the
// embedding unit for an issue. Pure function of its input.
func BuildIssueContext(issue *domain.Issue) string {
	var b strings.Builder
	b.WriteString("ISSUE_TYPE: " + issue.IssueType + "\n")
	b.WriteString("SUMMARY: " + issue.Summary + "\n")
	b.WriteString("STATUS: " + issue.Status + "\n")
	if issue.Priority != "" {
		b.WriteString("PRIORITY: " + issue.Priority + "\n")
	}
	b.WriteString("LABELS: " + strings.Join(issue.Labels, ", ") + "\n")

	description := jiraMarkupRe.ReplaceAllString(issue.Description, "")
	description = strings.TrimSpace(jiraMentionRe.ReplaceAllString(description, ""))
	if runes := []rune(description); len(runes) > issueDescriptionLimit {
		description = string(runes[:issueDescriptionLimit])
	}
	b.WriteString("DESCRIPTION: " + description + "\n")

	if len(issue.Comments) > 0 {
		snippets := make([]string, 0, maxContextComments)
		for _, c := range issue.Comments {
			if len(snippets) >= maxContextComments {
				break
			}
			body := strings.TrimSpace(c.Body)
			if body == "" {
				continue
			}
			if runes := []rune(body); len(runes) > commentSnippetLimit {
				body = string(runes[:commentSnippetLimit])
			}
			snippets = append(snippets, body)
		}
		if len(snippets) > 0 {
			b.WriteString("KEY_COMMENTS: " + strings.Join(snippets, " | ") + "\n")
		}
	}

	return b.String()
}

// SyncIssues fetches issues for the requested projects, upserts them, embeds
// their contexts, and refreshes workload snapshots for every assignee seen.
// Project-level and issue-level failures are recorded, never fatal; only a
// failure to enumerate projects fails the run.
func (s *JiraService) SyncIssues(ctx context.Context, opts SyncIssuesOptions) (*domain.SyncResult, error) {
	start := time.Now()

	projectKeys := opts.ProjectKeys
	if len(projectKeys) == 0 {
		projects, err := s.jira.Projects(ctx)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		for _, p := range projects {
			projectKeys = append(projectKeys, p.Key)
		}
	}

	result := &domain.SyncResult{Status: domain.SyncCompleted}
	for _, key := range projectKeys {
		result.ProjectsSynced = append(result.ProjectsSynced, key)
		s.syncProject(ctx, key, opts, result)
	}

	if err := s.refreshWorkloads(ctx); err != nil {
		slog.Error("workload refresh failed", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("error refreshing workloads: %v", err))
	}

	if len(result.Errors) > 0 {
		result.Status = domain.SyncCompletedWithErrors
	}
	result.DurationSeconds = roundDuration(time.Since(start))
	return result, nil
}

func (s *JiraService) syncProject(ctx context.Context, projectKey string, opts SyncIssuesOptions, result *domain.SyncResult) {
	issues, err := s.jira.SearchIssues(ctx, projectKey, opts.MaxResultsPerProject, opts.IncludeClosed)
	if err != nil {
		slog.Error("issue search failed", "project", projectKey, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("error syncing project %s: %v", projectKey, err))
		return
	}

	var synced []domain.Issue
	for i := range issues {
		issue := &issues[i]
		if err := s.syncIssue(ctx, issue, result); err != nil {
			slog.Error("issue sync failed", "issue", issue.IssueKey, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("error syncing issue %s: %v", issueRef(issue), err))
			continue
		}
		synced = append(synced, *issue)
	}
	result.IssuesSynced += len(synced)

	s.embedIssues(ctx, projectKey, synced, result)
	slog.Info("project synced", "project", projectKey, "issues", len(synced))
}

func (s *JiraService) syncIssue(ctx context.Context, issue *domain.Issue, result *domain.SyncResult) error {
	if issue.IssueKey == "" || issue.Summary == "" {
		return &port.DataError{Entity: issueRef(issue), Reason: "missing key or summary"}
	}

	stored := &domain.StoredIssue{
		IssueID:        issue.IssueID,
		IssueKey:       issue.IssueKey,
		ProjectKey:     issue.ProjectKey,
		Summary:        issue.Summary,
		Description:    issue.Description,
		IssueType:      issue.IssueType,
		Status:         issue.Status,
		Priority:       issue.Priority,
		Labels:         strings.Join(issue.Labels, ","),
		IssueURL:       issue.IssueURL,
		JiraCreatedAt:  issue.CreatedAt,
		JiraUpdatedAt:  issue.UpdatedAt,
		JiraResolvedAt: issue.ResolvedAt,
	}
	if issue.Assignee != nil {
		stored.AssigneeAccountID = issue.Assignee.AccountID
		stored.AssigneeDisplayName = issue.Assignee.DisplayName
		stored.AssigneeEmail = issue.Assignee.EmailAddress
	}
	if issue.Reporter != nil {
		stored.ReporterAccountID = issue.Reporter.AccountID
		stored.ReporterDisplayName = issue.Reporter.DisplayName
	}

	created, err := s.store.UpsertIssue(ctx, stored)
	if err != nil {
		return err
	}
	if created {
		result.IssuesCreated++
	} else {
		result.IssuesUpdated++
	}
	return nil
}

func (s *JiraService) embedIssues(ctx context.Context, projectKey string, issues []domain.Issue, result *domain.SyncResult) {
	if len(issues) == 0 {
		return
	}

	contexts := make([]string, len(issues))
	for i := range issues {
		issues[i].Context = BuildIssueContext(&issues[i])
		contexts[i] = issues[i].Context
	}

	vectors, indices, err := s.embeddings.EmbedTexts(ctx, contexts)
	if err != nil {
		slog.Error("issue embedding failed", "project", projectKey, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("error embedding issues for %s: %v", projectKey, err))
		return
	}
	if len(indices) < len(issues) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%d of %d issue contexts failed to embed for %s", len(issues)-len(indices), len(issues), projectKey))
	}

	for i, vector := range vectors {
		issue := issues[indices[i]]
		record := &domain.IssueVector{
			IssueID:    issue.IssueID,
			IssueKey:   issue.IssueKey,
			ProjectKey: issue.ProjectKey,
			IssueURL:   issue.IssueURL,
			Vector:     vector,
			Context:    issue.Context,
		}
		if issue.Assignee != nil {
			record.AssigneeAccountID = issue.Assignee.AccountID
		}
		if err := s.vectors.UpsertIssueVector(ctx, record); err != nil {
			slog.Error("store issue vector failed", "issue", issue.IssueKey, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("error storing vector for %s: %v", issue.IssueKey, err))
			continue
		}
		result.EmbeddingsGenerated++
	}
}

// refreshWorkloads recomputes and persists the workload snapshot of every
// assignee present in the synced issues.
func (s *JiraService) refreshWorkloads(ctx context.Context) error {
	accountIDs, err := s.store.ListAssigneeAccountIDs(ctx)
	if err != nil {
		return err
	}

	for _, accountID := range accountIDs {
		issues, err := s.store.ListIssuesByAssignee(ctx, accountID)
		if err != nil {
			return fmt.Errorf("load issues for %s: %w", accountID, err)
		}

		workload := CalculateWorkload(accountID, issues)
		now := workload.LastUpdated
		profile := &domain.DeveloperProfile{
			JiraAccountID:     accountID,
			JiraDisplayName:   workload.DisplayName,
			JiraEmail:         workload.Email,
			CurrentWorkload:   workload.TotalActiveIssues,
			WorkloadScore:     workload.WorkloadScore,
			WorkloadUpdatedAt: &now,
		}
		if _, err := s.store.UpsertDeveloperProfile(ctx, profile); err != nil {
			return fmt.Errorf("persist workload for %s: %w", accountID, err)
		}
	}
	return nil
}

// CalculateWorkload computes the weighted workload snapshot from an
// assignee's synced issues. Done/Closed/Resolved/Cancelled issues are
// excluded from every counter.
func CalculateWorkload(accountID string, issues []domain.StoredIssue) domain.DeveloperWorkload {
	w := domain.DeveloperWorkload{JiraAccountID: accountID, LastUpdated: time.Now().UTC()}

	for _, issue := range issues {
		if w.DisplayName == "" {
			w.DisplayName = issue.AssigneeDisplayName
		}
		if w.Email == "" {
			w.Email = issue.AssigneeEmail
		}

		status := strings.ToLower(issue.Status)
		switch status {
		case "done", "closed", "resolved", "cancelled", "canceled":
			continue
		}
		w.TotalActiveIssues++

		switch {
		case strings.Contains(status, "review"):
			w.InReviewIssues++
		case strings.Contains(status, "progress"):
			w.InProgressIssues++
		default:
			w.OpenIssues++
		}

		switch strings.ToLower(issue.Priority) {
		case "highest", "high", "critical", "blocker":
			w.HighPriorityCount++
		case "medium":
			w.MediumPriorityCount++
		case "low", "lowest", "minor", "trivial":
			w.LowPriorityCount++
		}

		switch strings.ToLower(issue.IssueType) {
		case "bug":
			w.BugsCount++
		case "task", "sub-task", "subtask":
			w.TasksCount++
		case "story":
			w.StoriesCount++
		default:
			w.OtherCount++
		}
	}

	w.WorkloadScore = round2(float64(w.HighPriorityCount)*weightHighPriority +
		float64(w.MediumPriorityCount)*weightMediumPriority +
		float64(w.LowPriorityCount)*weightLowPriority +
		float64(w.BugsCount)*weightBug +
		float64(w.InProgressIssues)*weightInProgress)
	return w
}

// Workload returns the current workload snapshot for one assignee.
func (s *JiraService) Workload(ctx context.Context, accountID string) (*domain.DeveloperWorkload, error) {
	issues, err := s.store.ListIssuesByAssignee(ctx, accountID)
	if err != nil {
		return nil, err
	}
	w := CalculateWorkload(accountID, issues)
	return &w, nil
}

// SearchSimilarIssues embeds a free-text query and returns the closest issue
// contexts, with optional project and assignee filters.
func (s *JiraService) SearchSimilarIssues(ctx context.Context, query string, limit int, projectKey, assigneeAccountID string) ([]domain.SimilarIssue, error) {
	queryVector, err := s.embeddings.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.vectors.SearchSimilarIssues(ctx, queryVector, limit, projectKey, assigneeAccountID)
}

// MapUser persists a confirmed GitHub identity on the developer profile for
// the given Jira account.
func (s *JiraService) MapUser(ctx context.Context, jiraAccountID, githubLogin string, githubID int64) (*domain.DeveloperProfile, error) {
	if jiraAccountID == "" {
		return nil, &port.ValidationError{Field: "jira_account_id", Reason: "must not be empty"}
	}
	if githubLogin == "" {
		return nil, &port.ValidationError{Field: "github_login", Reason: "must not be empty"}
	}

	profile := &domain.DeveloperProfile{
		JiraAccountID: jiraAccountID,
		GitHubLogin:   githubLogin,
		GitHubID:      githubID,
	}
	return s.store.UpsertDeveloperProfile(ctx, profile)
}

func issueRef(issue *domain.Issue) string {
	if issue.IssueKey != "" {
		return issue.IssueKey
	}
	if issue.IssueID != "" {
		return issue.IssueID
	}
	return "unknown issue"
}
