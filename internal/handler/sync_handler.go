package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/resourceiq/devmatch/internal/service"
)

// SyncHandler exposes the Jira and GitHub ingestion endpoints.
type SyncHandler struct {
	jiraService   *service.JiraService
	githubService *service.GitHubService
	maxPRsDefault int
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(jiraService *service.JiraService, githubService *service.GitHubService, maxPRsDefault int) *SyncHandler {
	return &SyncHandler{jiraService: jiraService, githubService: githubService, maxPRsDefault: maxPRsDefault}
}

// Register sets up sync routes.
func (h *SyncHandler) Register(router fiber.Router) {
	router.Post("/jira/sync", h.SyncJira)
	vectors := router.Group("/vectors")
	vectors.Post("/sync/author", h.SyncAuthor)
	vectors.Post("/sync/all", h.SyncAll)
}

// SyncJira ingests issues for the requested projects (all projects when
// none are given).
func (h *SyncHandler) SyncJira(c fiber.Ctx) error {
	var body struct {
		ProjectKeys   []string `json:"project_keys"`
		MaxResults    int      `json:"max_results"`
		IncludeClosed bool     `json:"include_closed"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	result, err := h.jiraService.SyncIssues(c.Context(), service.SyncIssuesOptions{
		ProjectKeys:          body.ProjectKeys,
		MaxResultsPerProject: body.MaxResults,
		IncludeClosed:        body.IncludeClosed,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// SyncAuthor ingests closed PRs for a single organization member.
func (h *SyncHandler) SyncAuthor(c fiber.Ctx) error {
	var body struct {
		AuthorLogin string `json:"author_login"`
		MaxPRs      int    `json:"max_prs"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.AuthorLogin == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "author_login is required"})
	}
	if body.MaxPRs <= 0 {
		body.MaxPRs = h.maxPRsDefault
	}

	result, err := h.githubService.SyncAuthorPRs(c.Context(), body.AuthorLogin, body.MaxPRs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// SyncAll ingests closed PRs for every organization member.
func (h *SyncHandler) SyncAll(c fiber.Ctx) error {
	var body struct {
		MaxPRsPerAuthor int `json:"max_prs_per_author"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if body.MaxPRsPerAuthor <= 0 {
		body.MaxPRsPerAuthor = h.maxPRsDefault
	}

	result, err := h.githubService.SyncAllAuthors(c.Context(), body.MaxPRsPerAuthor)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}
