package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

const defaultBaseURL = "https://api.github.com"

// perPage is the GitHub API page size used for all listings.
const perPage = 100

// Client implements port.GitHubProvider against the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	org        string
	httpClient *http.Client
}

// NewClient creates a GitHub API client scoped to one organization.
func NewClient(token, org string) (*Client, error) {
	if token == "" || org == "" {
		return nil, port.ErrGitHubNotConfigured
	}
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		org:        org,
		httpClient: &http.Client{},
	}, nil
}

// OrgMembers returns all members of the organization. Each member's profile
// is fetched individually to pick up public name/email, which the members
// listing omits.
func (c *Client) OrgMembers(ctx context.Context) ([]domain.GitHubUser, error) {
	var members []domain.GitHubUser

	for page := 1; ; page++ {
		body, err := c.get(ctx, fmt.Sprintf("/orgs/%s/members?per_page=%d&page=%d", url.PathEscape(c.org), perPage, page))
		if err != nil {
			return nil, fmt.Errorf("list org members: %w", err)
		}

		var pageMembers []struct {
			Login     string `json:"login"`
			ID        int64  `json:"id"`
			AvatarURL string `json:"avatar_url"`
			HTMLURL   string `json:"html_url"`
		}
		if err := json.Unmarshal(body, &pageMembers); err != nil {
			return nil, fmt.Errorf("decode org members: %w", err)
		}
		if len(pageMembers) == 0 {
			break
		}

		for _, m := range pageMembers {
			user := domain.GitHubUser{
				Login:     m.Login,
				ID:        m.ID,
				AvatarURL: m.AvatarURL,
				HTMLURL:   m.HTMLURL,
			}
			// Public name/email live on the user profile, not the members list.
			if profile, err := c.userProfile(ctx, m.Login); err != nil {
				slog.Warn("skipping profile enrichment", "login", m.Login, "error", err)
			} else {
				user.Name = profile.Name
				user.Email = profile.Email
			}
			members = append(members, user)
		}

		if len(pageMembers) < perPage {
			break
		}
	}

	return members, nil
}

// ClosedPRsByAuthor walks the organization's repositories collecting closed
// pull requests created by the given author, most recently updated first.
// Repositories that cannot be read are logged and skipped.
func (c *Client) ClosedPRsByAuthor(ctx context.Context, author domain.GitHubUser, maxPRs int) ([]domain.PullRequest, error) {
	repos, err := c.orgRepos(ctx)
	if err != nil {
		return nil, err
	}

	var prs []domain.PullRequest
	for _, repo := range repos {
		repoPRs, err := c.closedPRs(ctx, repo)
		if err != nil {
			slog.Warn("skipping repo", "repo", repo, "error", err)
			continue
		}

		for _, pr := range repoPRs {
			if pr.Author.ID != author.ID {
				continue
			}
			if len(prs) >= maxPRs {
				return prs, nil
			}

			full, err := c.enrichPR(ctx, repo, pr)
			if err != nil {
				slog.Warn("skipping pr", "repo", repo, "number", pr.Number, "error", err)
				continue
			}
			prs = append(prs, full)
		}
	}

	return prs, nil
}

func (c *Client) orgRepos(ctx context.Context) ([]string, error) {
	var repos []string
	for page := 1; ; page++ {
		body, err := c.get(ctx, fmt.Sprintf("/orgs/%s/repos?per_page=%d&page=%d", url.PathEscape(c.org), perPage, page))
		if err != nil {
			return nil, fmt.Errorf("list org repos: %w", err)
		}

		var pageRepos []struct {
			FullName string `json:"full_name"`
		}
		if err := json.Unmarshal(body, &pageRepos); err != nil {
			return nil, fmt.Errorf("decode org repos: %w", err)
		}
		if len(pageRepos) == 0 {
			break
		}
		for _, r := range pageRepos {
			repos = append(repos, r.FullName)
		}
		if len(pageRepos) < perPage {
			break
		}
	}
	return repos, nil
}

func (c *Client) closedPRs(ctx context.Context, repo string) ([]domain.PullRequest, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls?state=closed&sort=updated&direction=desc&per_page=%d", repo, perPage))
	if err != nil {
		return nil, err
	}

	var wire []struct {
		ID      int64  `json:"id"`
		Number  int    `json:"number"`
		Title   string `json:"title"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
		Labels  []struct {
			Name string `json:"name"`
		} `json:"labels"`
		User *struct {
			Login string `json:"login"`
			ID    int64  `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode pulls: %w", err)
	}

	prs := make([]domain.PullRequest, 0, len(wire))
	for _, w := range wire {
		if w.User == nil {
			slog.Debug("skipping pr with no user", "repo", repo, "number", w.Number)
			continue
		}
		labels := make([]string, len(w.Labels))
		for i, l := range w.Labels {
			labels[i] = l.Name
		}
		prs = append(prs, domain.PullRequest{
			ID:       w.ID,
			Number:   w.Number,
			Title:    w.Title,
			Body:     w.Body,
			HTMLURL:  w.HTMLURL,
			Labels:   labels,
			Author:   domain.GitHubUser{Login: w.User.Login, ID: w.User.ID},
			RepoName: repo,
		})
	}
	return prs, nil
}

// enrichPR fills in changed files and commit messages for a listed PR.
func (c *Client) enrichPR(ctx context.Context, repo string, pr domain.PullRequest) (domain.PullRequest, error) {
	filesBody, err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls/%d/files?per_page=%d", repo, pr.Number, perPage))
	if err != nil {
		return pr, fmt.Errorf("list pr files: %w", err)
	}
	var files []struct {
		Status   string `json:"status"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(filesBody, &files); err != nil {
		return pr, fmt.Errorf("decode pr files: %w", err)
	}
	for _, f := range files {
		pr.Files = append(pr.Files, domain.PullRequestFile{Status: f.Status, Filename: f.Filename})
	}

	commitsBody, err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls/%d/commits?per_page=%d", repo, pr.Number, perPage))
	if err != nil {
		return pr, fmt.Errorf("list pr commits: %w", err)
	}
	var commits []struct {
		Commit struct {
			Message string `json:"message"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(commitsBody, &commits); err != nil {
		return pr, fmt.Errorf("decode pr commits: %w", err)
	}
	for _, cm := range commits {
		pr.CommitMessages = append(pr.CommitMessages, cm.Commit.Message)
	}

	return pr, nil
}

func (c *Client) userProfile(ctx context.Context, login string) (*domain.GitHubUser, error) {
	body, err := c.get(ctx, "/users/"+url.PathEscape(login))
	if err != nil {
		return nil, err
	}
	var wire struct {
		Login     string `json:"login"`
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
		HTMLURL   string `json:"html_url"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	return &domain.GitHubUser{
		Login:     wire.Login,
		ID:        wire.ID,
		Name:      wire.Name,
		Email:     wire.Email,
		AvatarURL: wire.AvatarURL,
		HTMLURL:   wire.HTMLURL,
	}, nil
}

// get issues an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &port.ProviderError{
			Provider: "github",
			Status:   resp.StatusCode,
			Body:     string(body),
		}
	}

	return io.ReadAll(resp.Body)
}
