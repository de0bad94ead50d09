package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

// Client implements port.JiraProvider against the Jira Cloud REST API
// using basic auth (email + API token).
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a Jira API client for one site.
func NewClient(baseURL, email, apiToken string) (*Client, error) {
	if baseURL == "" || email == "" || apiToken == "" {
		return nil, port.ErrJiraNotConfigured
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		apiToken:   apiToken,
		httpClient: &http.Client{},
	}, nil
}

// Projects returns all accessible projects.
func (c *Client) Projects(ctx context.Context) ([]port.JiraProject, error) {
	body, err := c.get(ctx, "/rest/api/2/project")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var projects []port.JiraProject
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

// Users returns all Atlassian user accounts on the site (apps and customer
// accounts are filtered out).
func (c *Client) Users(ctx context.Context) ([]domain.JiraUser, error) {
	var users []domain.JiraUser

	for startAt := 0; ; startAt += 100 {
		body, err := c.get(ctx, fmt.Sprintf("/rest/api/2/users/search?startAt=%d&maxResults=100", startAt))
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}

		var wire []wireUser
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
		if len(wire) == 0 {
			break
		}

		for _, w := range wire {
			if w.AccountType != "atlassian" {
				continue
			}
			users = append(users, w.toDomain())
		}

		if len(wire) < 100 {
			break
		}
	}

	return users, nil
}

// defaultMaxResults is the issue page size used when the caller does not
// cap the search. Jira treats maxResults=0 as "return nothing".
const defaultMaxResults = 100

// SearchIssues fetches up to maxResults issues for a project via JQL,
// including comments. A non-positive maxResults falls back to
// defaultMaxResults.
func (c *Client) SearchIssues(ctx context.Context, projectKey string, maxResults int, includeClosed bool) ([]domain.Issue, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var jqlParts []string
	if projectKey != "" {
		jqlParts = append(jqlParts, fmt.Sprintf("project = %q", projectKey))
	}
	if !includeClosed {
		jqlParts = append(jqlParts, `status NOT IN ("Done", "Closed", "Resolved")`)
	}
	jql := strings.Join(jqlParts, " AND ")

	params := url.Values{
		"jql":        {jql},
		"maxResults": {fmt.Sprintf("%d", maxResults)},
		"fields":     {"summary,description,issuetype,status,priority,labels,assignee,reporter,created,updated,resolutiondate,comment"},
	}

	body, err := c.get(ctx, "/rest/api/2/search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	var wire struct {
		Issues []wireIssue `json:"issues"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}

	issues := make([]domain.Issue, 0, len(wire.Issues))
	for _, w := range wire.Issues {
		issues = append(issues, w.toDomain(c.baseURL))
	}
	return issues, nil
}

// --- wire types ---

type wireUser struct {
	AccountID    string `json:"accountId"`
	AccountType  string `json:"accountType"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
	AvatarURLs   struct {
		Large string `json:"48x48"`
	} `json:"avatarUrls"`
}

func (w wireUser) toDomain() domain.JiraUser {
	return domain.JiraUser{
		AccountID:    w.AccountID,
		DisplayName:  w.DisplayName,
		EmailAddress: w.EmailAddress,
		AvatarURL:    w.AvatarURLs.Large,
		Active:       w.Active,
	}
}

type wireIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		IssueType   *struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Status *struct {
			Name string `json:"name"`
		} `json:"status"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		Labels     []string  `json:"labels"`
		Assignee   *wireUser `json:"assignee"`
		Reporter   *wireUser `json:"reporter"`
		Created    string    `json:"created"`
		Updated    string    `json:"updated"`
		Resolution string    `json:"resolutiondate"`
		Comment    *struct {
			Comments []struct {
				ID      string    `json:"id"`
				Author  *wireUser `json:"author"`
				Body    string    `json:"body"`
				Created string    `json:"created"`
				Updated string    `json:"updated"`
			} `json:"comments"`
		} `json:"comment"`
	} `json:"fields"`
}

func (w wireIssue) toDomain(siteURL string) domain.Issue {
	f := w.Fields

	issue := domain.Issue{
		IssueID:     w.ID,
		IssueKey:    w.Key,
		ProjectKey:  strings.SplitN(w.Key, "-", 2)[0],
		Summary:     f.Summary,
		Description: f.Description,
		IssueType:   "Unknown",
		Status:      "Unknown",
		Labels:      f.Labels,
		IssueURL:    siteURL + "/browse/" + w.Key,
		CreatedAt:   parseJiraTime(f.Created),
		UpdatedAt:   parseJiraTime(f.Updated),
		ResolvedAt:  parseJiraTime(f.Resolution),
	}

	if f.IssueType != nil {
		issue.IssueType = f.IssueType.Name
	}
	if f.Status != nil {
		issue.Status = f.Status.Name
	}
	if f.Priority != nil {
		issue.Priority = f.Priority.Name
	}
	if f.Assignee != nil {
		u := f.Assignee.toDomain()
		issue.Assignee = &u
	}
	if f.Reporter != nil {
		u := f.Reporter.toDomain()
		issue.Reporter = &u
	}

	if f.Comment != nil {
		for _, cm := range f.Comment.Comments {
			if cm.Author == nil {
				continue
			}
			created := parseJiraTime(cm.Created)
			if created == nil {
				continue
			}
			comment := domain.JiraComment{
				ID:      cm.ID,
				Author:  cm.Author.toDomain(),
				Body:    cm.Body,
				Created: *created,
				Updated: parseJiraTime(cm.Updated),
			}
			issue.Comments = append(issue.Comments, comment)
		}
	}

	return issue
}

// parseJiraTime handles Jira's "2006-01-02T15:04:05.000-0700" timestamps.
func parseJiraTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// get issues an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &port.ProviderError{
			Provider: "jira",
			Status:   resp.StatusCode,
			Body:     string(body),
		}
	}

	return io.ReadAll(resp.Body)
}
