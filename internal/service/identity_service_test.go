package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

func TestMatchUsersEmailIsAuthoritative(t *testing.T) {
	github := []domain.GitHubUser{
		{Login: "zzz-unrelated", Name: "Completely Different", Email: "Sam.Jones@Example.com"},
	}
	jira := []domain.JiraUser{
		{AccountID: "acc-1", DisplayName: "Samantha Jones", EmailAddress: "sam.jones@example.com"},
	}

	matches := MatchUsers(github, jira, 99)
	require.Len(t, matches, 1)
	assert.Equal(t, 100.0, matches[0].MatchScore)
	assert.Equal(t, "acc-1", matches[0].JiraAccount.AccountID)
}

func TestMatchUsersNameAndLoginBlend(t *testing.T) {
	github := []domain.GitHubUser{
		{Login: "mgarcia", Name: "Maria Garcia"},
	}
	jira := []domain.JiraUser{
		{AccountID: "acc-1", DisplayName: "Maria Garcia"},
		{AccountID: "acc-2", DisplayName: "Peter Quill"},
	}

	matches := MatchUsers(github, jira, 75)
	require.Len(t, matches, 1)
	assert.Equal(t, "acc-1", matches[0].JiraAccount.AccountID)
	assert.GreaterOrEqual(t, matches[0].MatchScore, 75.0)
	assert.LessOrEqual(t, matches[0].MatchScore, 100.0)
}

func TestMatchUsersShortLoginCarriesLessWeight(t *testing.T) {
	long := []domain.GitHubUser{{Login: "garcia"}}
	short := []domain.GitHubUser{{Login: "ga"}}
	jira := []domain.JiraUser{{AccountID: "acc-1", DisplayName: "Maria Garcia"}}

	longMatches := MatchUsers(long, jira, 0)
	shortMatches := MatchUsers(short, jira, 0)
	require.Len(t, longMatches, 1)
	require.Len(t, shortMatches, 1)
	assert.Greater(t, longMatches[0].MatchScore, shortMatches[0].MatchScore)
}

func TestMatchUsersDeterministic(t *testing.T) {
	github := []domain.GitHubUser{
		{Login: "mgarcia", Name: "Maria Garcia"},
		{Login: "pquill", Name: "Peter Quill"},
	}
	jira := []domain.JiraUser{
		{AccountID: "acc-1", DisplayName: "Maria Garcia"},
		{AccountID: "acc-2", DisplayName: "Peter Quill"},
		{AccountID: "acc-3", DisplayName: "Gamora"},
	}

	first := MatchUsers(github, jira, 50)
	second := MatchUsers(github, jira, 50)
	assert.Equal(t, first, second)
}

func TestMatchUsersNoJiraDisplayName(t *testing.T) {
	github := []domain.GitHubUser{{Login: "mgarcia", Name: "Maria Garcia"}}
	jira := []domain.JiraUser{{AccountID: "acc-1"}}

	assert.Empty(t, MatchUsers(github, jira, 1))
}

func TestMatchThresholdValidation(t *testing.T) {
	svc := NewIdentityService(&fakeGitHub{}, &fakeJira{})

	var ve *port.ValidationError
	_, err := svc.Match(context.Background(), -1)
	require.ErrorAs(t, err, &ve)

	_, err = svc.Match(context.Background(), 101)
	require.ErrorAs(t, err, &ve)
}

func TestMatchFetchesBothPopulations(t *testing.T) {
	github := &fakeGitHub{members: []domain.GitHubUser{{Login: "mgarcia", Name: "Maria Garcia", Email: "mg@example.com"}}}
	jira := &fakeJira{users: []domain.JiraUser{{AccountID: "acc-1", DisplayName: "Maria Garcia", EmailAddress: "mg@example.com"}}}
	svc := NewIdentityService(github, jira)

	matches, err := svc.Match(context.Background(), 75)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 100.0, matches[0].MatchScore)
}
