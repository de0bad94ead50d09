package domain

// IdentityMatch pairs a GitHub identity with its best-scoring Jira candidate.
// Matches are computed per request and only persisted through an explicit
// profile mapping call.
type IdentityMatch struct {
	GitHubAccount GitHubUser `json:"github_account"`
	JiraAccount   JiraUser   `json:"jira_account"`
	MatchScore    float64    `json:"match_score"`
}
