package service

import (
	"context"
	"math"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

// IdentityService matches GitHub organization members against Jira site users.
type IdentityService struct {
	github port.GitHubProvider
	jira   port.JiraProvider
}

// NewIdentityService creates an identity matching service.
func NewIdentityService(github port.GitHubProvider, jira port.JiraProvider) *IdentityService {
	return &IdentityService{github: github, jira: jira}
}

// Match fetches both account populations and returns the pairs scoring at or
// above threshold (a percentage in [0, 100]).
func (s *IdentityService) Match(ctx context.Context, threshold float64) ([]domain.IdentityMatch, error) {
	if threshold < 0 || threshold > 100 {
		return nil, &port.ValidationError{Field: "threshold", Reason: "must be between 0 and 100"}
	}

	githubUsers, err := s.github.OrgMembers(ctx)
	if err != nil {
		return nil, err
	}
	jiraUsers, err := s.jira.Users(ctx)
	if err != nil {
		return nil, err
	}

	return MatchUsers(githubUsers, jiraUsers, threshold), nil
}

// MatchUsers scores every GitHub user against every Jira user and keeps the
// best Jira candidate per GitHub user when it reaches threshold. Scoring is
// deterministic: equal emails short-circuit to a perfect score, otherwise the
// score blends a token-set comparison of the real names with a partial
// comparison of the GitHub login against the Jira display name. Logins of one
// or two characters carry less weight since they collide with almost anything.
func MatchUsers(githubUsers []domain.GitHubUser, jiraUsers []domain.JiraUser, threshold float64) []domain.IdentityMatch {
	var matches []domain.IdentityMatch
	for _, gh := range githubUsers {
		var best *domain.IdentityMatch
		for _, jira := range jiraUsers {
			score := matchScore(gh, jira)
			if score < threshold {
				continue
			}
			if best == nil || score > best.MatchScore {
				best = &domain.IdentityMatch{GitHubAccount: gh, JiraAccount: jira, MatchScore: score}
			}
		}
		if best != nil {
			matches = append(matches, *best)
		}
	}
	return matches
}

func matchScore(gh domain.GitHubUser, jira domain.JiraUser) float64 {
	ghEmail := normalize(gh.Email)
	jiraEmail := normalize(jira.EmailAddress)
	if ghEmail != "" && ghEmail == jiraEmail {
		return 100
	}

	ghName := normalize(gh.Name)
	ghLogin := normalize(gh.Login)
	jiraName := normalize(jira.DisplayName)
	if jiraName == "" {
		return 0
	}

	score := 0.0
	if ghName != "" {
		score = 0.5 * float64(fuzzy.TokenSetRatio(ghName, jiraName))
	}
	if ghLogin != "" {
		loginWeight := 0.2
		if len(ghLogin) > 2 {
			loginWeight = 0.5
		}
		score += loginWeight * float64(fuzzy.PartialRatio(ghLogin, jiraName))
	}
	return round2(score)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
