package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/resourceiq/devmatch/internal/service"
)

const defaultSearchLimit = 10

// SearchHandler exposes similarity search over the stored vectors.
type SearchHandler struct {
	githubService *service.GitHubService
	jiraService   *service.JiraService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(githubService *service.GitHubService, jiraService *service.JiraService) *SearchHandler {
	return &SearchHandler{githubService: githubService, jiraService: jiraService}
}

// Register sets up search routes.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Post("/vectors/search", h.SearchPRs)
	router.Post("/issues/search", h.SearchIssues)
}

// SearchPRs returns the PR contexts closest to a free-text query.
func (h *SearchHandler) SearchPRs(c fiber.Ctx) error {
	var body struct {
		Query       string `json:"query"`
		MaxResults  int    `json:"max_results"`
		AuthorLogin string `json:"author_login"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}
	if body.MaxResults <= 0 {
		body.MaxResults = defaultSearchLimit
	}

	results, err := h.githubService.SearchSimilarPRs(c.Context(), body.Query, body.MaxResults, body.AuthorLogin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}

// SearchIssues returns the issue contexts closest to a free-text query.
func (h *SearchHandler) SearchIssues(c fiber.Ctx) error {
	var body struct {
		Query             string `json:"query"`
		MaxResults        int    `json:"max_results"`
		ProjectKey        string `json:"project_key"`
		AssigneeAccountID string `json:"assignee_account_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}
	if body.MaxResults <= 0 {
		body.MaxResults = defaultSearchLimit
	}

	results, err := h.jiraService.SearchSimilarIssues(c.Context(), body.Query, body.MaxResults, body.ProjectKey, body.AssigneeAccountID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}
