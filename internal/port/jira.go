package port

import (
	"context"

	"github.com/resourceiq/devmatch/internal/domain"
)

// JiraProject is a project reference returned by the projects listing.
type JiraProject struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// JiraProvider abstracts the Jira API, exposing only the fields the engine
// consumes.
type JiraProvider interface {
	// Projects returns all accessible projects.
	Projects(ctx context.Context) ([]JiraProject, error)

	// Users returns all Atlassian user accounts on the site.
	Users(ctx context.Context) ([]domain.JiraUser, error)

	// SearchIssues fetches up to maxResults issues for a project, including
	// comments. When includeClosed is false, Done/Closed/Resolved issues
	// are filtered out by the query.
	SearchIssues(ctx context.Context, projectKey string, maxResults int, includeClosed bool) ([]domain.Issue, error)
}
