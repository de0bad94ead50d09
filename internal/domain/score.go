package domain

// PRScoreInfo is one contributing pull request retained as ranking evidence.
type PRScoreInfo struct {
	PRID            string  `json:"pr_id"`
	PRTitle         string  `json:"pr_title"`
	PRDescription   string  `json:"pr_description"`
	PRURL           string  `json:"pr_url"`
	MatchPercentage float64 `json:"match_percentage"`
}

// ScoreProfile is one developer's ranked fitness for a task.
// TotalScore is GitHubPRScore + JiraIssueScore; it is a relative ranking
// value, not a probability.
type ScoreProfile struct {
	UserID         string        `json:"user_id"`
	UserName       string        `json:"user_name"`
	GitHubPRScore  float64       `json:"github_pr_score"`
	JiraIssueScore float64       `json:"jira_issue_score"`
	TotalScore     float64       `json:"total_score"`
	PRInfo         []PRScoreInfo `json:"pr_info"`
	IssueLinks     []string      `json:"issue_links"`
}
