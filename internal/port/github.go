package port

import (
	"context"

	"github.com/resourceiq/devmatch/internal/domain"
)

// GitHubProvider abstracts the GitHub API, exposing only the fields the
// engine consumes. Implementations handle pagination and auth.
type GitHubProvider interface {
	// OrgMembers returns all members of the configured organization.
	// Name and email are filled only when the user made them public.
	OrgMembers(ctx context.Context) ([]domain.GitHubUser, error)

	// ClosedPRsByAuthor returns up to maxPRs closed pull requests authored
	// by the given user across the organization's repositories, most
	// recently updated first. Repositories that cannot be read are skipped.
	ClosedPRsByAuthor(ctx context.Context, author domain.GitHubUser, maxPRs int) ([]domain.PullRequest, error)
}
