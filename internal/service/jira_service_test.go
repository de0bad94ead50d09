package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

// fakeJira satisfies port.JiraProvider.
type fakeJira struct {
	projects []port.JiraProject
	users    []domain.JiraUser
	issues   map[string][]domain.Issue
}

func (f *fakeJira) Projects(_ context.Context) ([]port.JiraProject, error) { return f.projects, nil }
func (f *fakeJira) Users(_ context.Context) ([]domain.JiraUser, error)    { return f.users, nil }
func (f *fakeJira) SearchIssues(_ context.Context, projectKey string, _ int, _ bool) ([]domain.Issue, error) {
	return f.issues[projectKey], nil
}

// fakeIssueStore keeps issues and profiles in memory.
type fakeIssueStore struct {
	issues   map[string]domain.StoredIssue // by issue_id
	profiles map[string]domain.DeveloperProfile
}

func newFakeIssueStore() *fakeIssueStore {
	return &fakeIssueStore{
		issues:   map[string]domain.StoredIssue{},
		profiles: map[string]domain.DeveloperProfile{},
	}
}

func (f *fakeIssueStore) UpsertIssue(_ context.Context, issue *domain.StoredIssue) (bool, error) {
	_, exists := f.issues[issue.IssueID]
	f.issues[issue.IssueID] = *issue
	return !exists, nil
}

func (f *fakeIssueStore) ListIssuesByAssignee(_ context.Context, accountID string) ([]domain.StoredIssue, error) {
	var out []domain.StoredIssue
	for _, issue := range f.issues {
		if issue.AssigneeAccountID == accountID {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (f *fakeIssueStore) ListAssigneeAccountIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, issue := range f.issues {
		if issue.AssigneeAccountID != "" && !seen[issue.AssigneeAccountID] {
			seen[issue.AssigneeAccountID] = true
			out = append(out, issue.AssigneeAccountID)
		}
	}
	return out, nil
}

func (f *fakeIssueStore) UpsertDeveloperProfile(_ context.Context, p *domain.DeveloperProfile) (*domain.DeveloperProfile, error) {
	existing := f.profiles[p.JiraAccountID]
	merged := *p
	if merged.GitHubLogin == "" {
		merged.GitHubLogin = existing.GitHubLogin
		merged.GitHubID = existing.GitHubID
	}
	f.profiles[p.JiraAccountID] = merged
	return &merged, nil
}

// fakeIssueVectors records issue vector upserts.
type fakeIssueVectors struct {
	upserted []domain.IssueVector
	searched []domain.SimilarIssue
}

func (f *fakeIssueVectors) UpsertIssueVector(_ context.Context, e *domain.IssueVector) error {
	f.upserted = append(f.upserted, *e)
	return nil
}

func (f *fakeIssueVectors) SearchSimilarIssues(_ context.Context, _ []float32, _ int, _, _ string) ([]domain.SimilarIssue, error) {
	return f.searched, nil
}

func TestBuildIssueContextSections(t *testing.T) {
	issue := &domain.Issue{
		IssueKey:    "PAY-42",
		IssueType:   "Bug",
		Summary:     "Webhook retries drop events",
		Status:      "In Progress",
		Priority:    "High",
		Labels:      []string{"payments", "webhooks"},
		Description: "{code}panic(){code} Seen after deploy [~accountid:abc123] confirmed it.",
		Comments: []domain.JiraComment{
			{Body: "Reproduced on staging."},
			{Body: ""},
			{Body: "Root cause is the dedup cache."},
		},
	}

	ctx := BuildIssueContext(issue)

	assert.Contains(t, ctx, "ISSUE_TYPE: Bug\n")
	assert.Contains(t, ctx, "SUMMARY: Webhook retries drop events\n")
	assert.Contains(t, ctx, "STATUS: In Progress\n")
	assert.Contains(t, ctx, "PRIORITY: High\n")
	assert.Contains(t, ctx, "LABELS: payments, webhooks\n")
	// Markup blocks and mentions stripped from the description.
	assert.NotContains(t, ctx, "{code}")
	assert.NotContains(t, ctx, "[~accountid:abc123]")
	assert.Contains(t, ctx, "Seen after deploy")
	assert.Contains(t, ctx, "KEY_COMMENTS: Reproduced on staging. | Root cause is the dedup cache.\n")
}

func TestBuildIssueContextOmitsEmptyPriority(t *testing.T) {
	ctx := BuildIssueContext(&domain.Issue{IssueKey: "X-1", IssueType: "Task", Summary: "s", Status: "To Do"})
	assert.NotContains(t, ctx, "PRIORITY:")
}

func TestBuildIssueContextTruncatesDescription(t *testing.T) {
	ctx := BuildIssueContext(&domain.Issue{
		IssueKey: "X-1", IssueType: "Task", Summary: "s", Status: "To Do",
		Description: strings.Repeat("d", 4000),
	})
	for _, line := range strings.Split(ctx, "\n") {
		if strings.HasPrefix(line, "DESCRIPTION: ") {
			assert.Len(t, strings.TrimPrefix(line, "DESCRIPTION: "), 1500)
			return
		}
	}
	t.Fatal("DESCRIPTION section missing")
}

func TestSyncIssuesRecordsMalformedIssues(t *testing.T) {
	assignee := &domain.JiraUser{AccountID: "acc-1", DisplayName: "Alice", EmailAddress: "alice@example.com"}
	issues := make([]domain.Issue, 0, 11)
	for i := 0; i < 10; i++ {
		issues = append(issues, domain.Issue{
			IssueID:    fmt.Sprintf("1000%d", i),
			IssueKey:   fmt.Sprintf("PAY-%d", i),
			ProjectKey: "PAY",
			Summary:    fmt.Sprintf("Issue %d", i),
			IssueType:  "Task",
			Status:     "To Do",
			Assignee:   assignee,
		})
	}
	// Malformed: no key, no summary.
	issues = append(issues, domain.Issue{IssueID: "9999", ProjectKey: "PAY"})

	jira := &fakeJira{issues: map[string][]domain.Issue{"PAY": issues}}
	store := newFakeIssueStore()
	vectors := &fakeIssueVectors{}
	svc := NewJiraService(jira, &fakeTextEmbedder{dim: 4}, store, vectors)

	result, err := svc.SyncIssues(context.Background(), SyncIssuesOptions{ProjectKeys: []string{"PAY"}})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompletedWithErrors, result.Status)
	assert.Equal(t, 10, result.IssuesSynced)
	assert.Equal(t, 10, result.IssuesCreated)
	assert.Equal(t, 0, result.IssuesUpdated)
	assert.Equal(t, 10, result.EmbeddingsGenerated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "9999")
	assert.Len(t, vectors.upserted, 10)

	// Second run updates instead of creating.
	result, err = svc.SyncIssues(context.Background(), SyncIssuesOptions{ProjectKeys: []string{"PAY"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.IssuesCreated)
	assert.Equal(t, 10, result.IssuesUpdated)
}

func TestSyncIssuesRefreshesWorkloadProfiles(t *testing.T) {
	assignee := &domain.JiraUser{AccountID: "acc-7", DisplayName: "Bob", EmailAddress: "bob@example.com"}
	jira := &fakeJira{issues: map[string][]domain.Issue{
		"OPS": {
			{IssueID: "1", IssueKey: "OPS-1", ProjectKey: "OPS", Summary: "a", IssueType: "Bug", Status: "In Progress", Priority: "High", Assignee: assignee},
			{IssueID: "2", IssueKey: "OPS-2", ProjectKey: "OPS", Summary: "b", IssueType: "Task", Status: "To Do", Priority: "Low", Assignee: assignee},
			{IssueID: "3", IssueKey: "OPS-3", ProjectKey: "OPS", Summary: "c", IssueType: "Task", Status: "Done", Priority: "High", Assignee: assignee},
		},
	}}
	store := newFakeIssueStore()
	svc := NewJiraService(jira, &fakeTextEmbedder{dim: 4}, store, &fakeIssueVectors{})

	_, err := svc.SyncIssues(context.Background(), SyncIssuesOptions{ProjectKeys: []string{"OPS"}})
	require.NoError(t, err)

	profile, ok := store.profiles["acc-7"]
	require.True(t, ok)
	assert.Equal(t, "Bob", profile.JiraDisplayName)
	assert.Equal(t, 2, profile.CurrentWorkload)
	// high(3) + low(1) + bug(1.5) + in-progress(0.5); the Done issue is excluded.
	assert.Equal(t, 6.0, profile.WorkloadScore)
	require.NotNil(t, profile.WorkloadUpdatedAt)
}

func TestCalculateWorkloadWeights(t *testing.T) {
	issues := []domain.StoredIssue{
		{Status: "In Progress", Priority: "Highest", IssueType: "Bug"},
		{Status: "To Do", Priority: "Medium", IssueType: "Story"},
		{Status: "In Review", Priority: "Medium", IssueType: "Task"},
		{Status: "Open", Priority: "Low", IssueType: "Task"},
		{Status: "Closed", Priority: "Highest", IssueType: "Bug"},
	}

	w := CalculateWorkload("acc-9", issues)
	assert.Equal(t, 4, w.TotalActiveIssues)
	assert.Equal(t, 1, w.InProgressIssues)
	assert.Equal(t, 1, w.InReviewIssues)
	assert.Equal(t, 2, w.OpenIssues)
	assert.Equal(t, 1, w.HighPriorityCount)
	assert.Equal(t, 2, w.MediumPriorityCount)
	assert.Equal(t, 1, w.LowPriorityCount)
	assert.Equal(t, 1, w.BugsCount)
	// 1*3 + 2*2 + 1*1 + 1*1.5 + 1*0.5
	assert.Equal(t, 10.0, w.WorkloadScore)
}

func TestMapUserValidation(t *testing.T) {
	svc := NewJiraService(&fakeJira{}, &fakeTextEmbedder{dim: 4}, newFakeIssueStore(), &fakeIssueVectors{})

	_, err := svc.MapUser(context.Background(), "", "octo", 42)
	var ve *port.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = svc.MapUser(context.Background(), "acc-1", "", 0)
	require.ErrorAs(t, err, &ve)
}

func TestMapUserPersistsLink(t *testing.T) {
	store := newFakeIssueStore()
	svc := NewJiraService(&fakeJira{}, &fakeTextEmbedder{dim: 4}, store, &fakeIssueVectors{})

	profile, err := svc.MapUser(context.Background(), "acc-1", "octo", 42)
	require.NoError(t, err)
	assert.Equal(t, "octo", profile.GitHubLogin)
	assert.Equal(t, int64(42), profile.GitHubID)
	assert.Equal(t, "octo", store.profiles["acc-1"].GitHubLogin)
}
