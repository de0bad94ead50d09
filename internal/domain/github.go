package domain

// GitHubUser is an organization member as exposed by the GitHub API.
// Name and Email are empty unless the user made them public.
type GitHubUser struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	HTMLURL   string `json:"html_url,omitempty"`
}

// PullRequestFile is one changed file in a pull request (status + path, no diff).
type PullRequestFile struct {
	Status   string `json:"status"` // added, removed, modified, renamed
	Filename string `json:"filename"`
}

// PullRequest is the narrow slice of a GitHub pull request the engine consumes.
// Context holds the multi-section plain-text summary built for embedding.
type PullRequest struct {
	ID             int64             `json:"id"`
	Number         int               `json:"number"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	HTMLURL        string            `json:"html_url"`
	Labels         []string          `json:"labels"`
	Files          []PullRequestFile `json:"files"`
	CommitMessages []string          `json:"commit_messages"`
	Author         GitHubUser        `json:"author"`
	RepoName       string            `json:"repo_name"`
	Context        string            `json:"context,omitempty"`
}
