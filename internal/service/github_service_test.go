package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

// fakeTextEmbedder satisfies textEmbedder with scripted failures.
type fakeTextEmbedder struct {
	dim        int
	failQuery  bool
	dropTexts  map[string]bool
	queryCalls int
}

func (f *fakeTextEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, []int, error) {
	var vectors [][]float32
	var indices []int
	for i, t := range texts {
		if f.dropTexts[t] {
			continue
		}
		vectors = append(vectors, make([]float32, f.dim))
		indices = append(indices, i)
	}
	return vectors, indices, nil
}

func (f *fakeTextEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.queryCalls++
	if f.failQuery {
		return nil, errors.New("embedder down")
	}
	v := make([]float32, f.dim)
	v[0] = 1
	return v, nil
}

// fakeGitHub satisfies port.GitHubProvider.
type fakeGitHub struct {
	members    []domain.GitHubUser
	prs        map[string][]domain.PullRequest
	membersErr error
	prsErr     map[string]error
}

func (f *fakeGitHub) OrgMembers(_ context.Context) ([]domain.GitHubUser, error) {
	return f.members, f.membersErr
}

func (f *fakeGitHub) ClosedPRsByAuthor(_ context.Context, author domain.GitHubUser, maxPRs int) ([]domain.PullRequest, error) {
	if err := f.prsErr[author.Login]; err != nil {
		return nil, err
	}
	prs := f.prs[author.Login]
	if maxPRs > 0 && len(prs) > maxPRs {
		prs = prs[:maxPRs]
	}
	return prs, nil
}

// fakePRVectors records upserts.
type fakePRVectors struct {
	upserted  []domain.PRVector
	upsertErr error
	searched  []domain.SimilarPR
}

func (f *fakePRVectors) UpsertPRVector(_ context.Context, e *domain.PRVector) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, *e)
	return nil
}

func (f *fakePRVectors) SearchSimilarPRs(_ context.Context, _ []float32, _ int, _ string) ([]domain.SimilarPR, error) {
	return f.searched, nil
}

func TestBuildPRContextSections(t *testing.T) {
	pr := &domain.PullRequest{
		Title:  "Add retry logic to payment webhook",
		Body:   "<!-- template boilerplate -->\nRetries failed deliveries with backoff.",
		Labels: []string{"backend", "payments"},
		Files: []domain.PullRequestFile{
			{Status: "modified", Filename: "internal/webhook/retry.go"},
			{Status: "added", Filename: "internal/webhook/retry_test.go"},
		},
		CommitMessages: []string{
			"fix",
			"Implement exponential backoff for webhook retries\n\nlong body here",
		},
	}

	ctx := BuildPRContext(pr)

	assert.Contains(t, ctx, "PR_INTENT: Add retry logic to payment webhook\n")
	assert.Contains(t, ctx, "DESCRIPTION: Retries failed deliveries with backoff.\n")
	assert.NotContains(t, ctx, "template boilerplate")
	assert.Contains(t, ctx, "LABELS: backend, payments\n")
	assert.Contains(t, ctx, "- [MODIFIED] internal/webhook/retry.go\n")
	assert.Contains(t, ctx, "- [ADDED] internal/webhook/retry_test.go\n")
	// Short commit filtered, long commit trimmed to its first line.
	assert.NotContains(t, ctx, "- fix\n")
	assert.Contains(t, ctx, "- Implement exponential backoff for webhook retries\n")
	assert.NotContains(t, ctx, "long body here")
}

func TestBuildPRContextTruncatesDescription(t *testing.T) {
	pr := &domain.PullRequest{
		Title: "Big one",
		Body:  strings.Repeat("x", 5000),
	}

	ctx := BuildPRContext(pr)
	descLine := ""
	for _, line := range strings.Split(ctx, "\n") {
		if strings.HasPrefix(line, "DESCRIPTION: ") {
			descLine = line
			break
		}
	}
	require.NotEmpty(t, descLine)
	assert.Len(t, strings.TrimPrefix(descLine, "DESCRIPTION: "), 1000)
}

func TestSyncAuthorPRsStoresVectors(t *testing.T) {
	author := domain.GitHubUser{Login: "octo", ID: 42}
	github := &fakeGitHub{
		members: []domain.GitHubUser{author},
		prs: map[string][]domain.PullRequest{
			"octo": {
				{ID: 1001, Number: 7, Title: "First", Author: author, RepoName: "svc"},
				{ID: 1002, Number: 8, Title: "Second", Author: author, RepoName: "svc"},
			},
		},
	}
	vectors := &fakePRVectors{}
	svc := NewGitHubService(github, &fakeTextEmbedder{dim: 4}, vectors)

	result, err := svc.SyncAuthorPRs(context.Background(), "octo", 50)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompleted, result.Status)
	assert.Equal(t, 2, result.PRsSynced)
	assert.Equal(t, 2, result.EmbeddingsGenerated)
	assert.Equal(t, []string{"octo"}, result.AuthorsSynced)
	require.Len(t, vectors.upserted, 2)
	assert.Equal(t, "1001", vectors.upserted[0].PRID)
	assert.Equal(t, int64(42), vectors.upserted[0].AuthorID)
	assert.NotEmpty(t, vectors.upserted[0].Context)
}

func TestSyncAuthorPRsUnknownAuthor(t *testing.T) {
	svc := NewGitHubService(&fakeGitHub{}, &fakeTextEmbedder{dim: 4}, &fakePRVectors{})

	_, err := svc.SyncAuthorPRs(context.Background(), "ghost", 50)
	var de *port.DataError
	require.ErrorAs(t, err, &de)
}

func TestSyncAllAuthorsRecordsMemberFailures(t *testing.T) {
	ok := domain.GitHubUser{Login: "alice", ID: 1}
	broken := domain.GitHubUser{Login: "bob", ID: 2}
	github := &fakeGitHub{
		members: []domain.GitHubUser{ok, broken},
		prs: map[string][]domain.PullRequest{
			"alice": {{ID: 1, Number: 1, Title: "One", Author: ok, RepoName: "svc"}},
		},
		prsErr: map[string]error{"bob": errors.New("rate limited")},
	}
	svc := NewGitHubService(github, &fakeTextEmbedder{dim: 4}, &fakePRVectors{})

	result, err := svc.SyncAllAuthors(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncCompletedWithErrors, result.Status)
	assert.Equal(t, 1, result.PRsSynced)
	assert.Equal(t, []string{"alice", "bob"}, result.AuthorsSynced)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bob")
}

func TestSearchSimilarPRsPropagatesEmbedFailure(t *testing.T) {
	svc := NewGitHubService(&fakeGitHub{}, &fakeTextEmbedder{dim: 4, failQuery: true}, &fakePRVectors{})

	_, err := svc.SearchSimilarPRs(context.Background(), "payment retries", 5, "")
	assert.Error(t, err)
}
