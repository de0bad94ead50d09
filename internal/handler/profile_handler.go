package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/service"
)

// profileReader is the store slice the profile handler reads.
type profileReader interface {
	ListDeveloperProfiles(ctx context.Context) ([]domain.DeveloperProfile, error)
}

// ProfileHandler exposes developer profile, identity matching, and workload
// endpoints.
type ProfileHandler struct {
	identityService  *service.IdentityService
	jiraService      *service.JiraService
	profiles         profileReader
	defaultThreshold float64
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(identityService *service.IdentityService, jiraService *service.JiraService, profiles profileReader, defaultThreshold float64) *ProfileHandler {
	return &ProfileHandler{
		identityService:  identityService,
		jiraService:      jiraService,
		profiles:         profiles,
		defaultThreshold: defaultThreshold,
	}
}

// Register sets up profile routes.
func (h *ProfileHandler) Register(router fiber.Router) {
	profiles := router.Group("/profiles")
	profiles.Get("/", h.List)
	profiles.Get("/match", h.Match)
	profiles.Post("/map", h.Map)
	profiles.Get("/:accountID/workload", h.Workload)
}

// List returns all developer profiles.
func (h *ProfileHandler) List(c fiber.Ctx) error {
	profiles, err := h.profiles.ListDeveloperProfiles(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"profiles": profiles, "count": len(profiles)})
}

// Match pairs GitHub organization members with Jira users.
func (h *ProfileHandler) Match(c fiber.Ctx) error {
	threshold := h.defaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "threshold must be a number"})
		}
		threshold = parsed
	}

	matches, err := h.identityService.Match(c.Context(), threshold)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"matches": matches, "count": len(matches), "threshold": threshold})
}

// Map persists a confirmed GitHub identity on a developer profile.
func (h *ProfileHandler) Map(c fiber.Ctx) error {
	var body struct {
		JiraAccountID string `json:"jira_account_id"`
		GitHubLogin   string `json:"github_login"`
		GitHubID      int64  `json:"github_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	profile, err := h.jiraService.MapUser(c.Context(), body.JiraAccountID, body.GitHubLogin, body.GitHubID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

// Workload returns the weighted workload snapshot for one Jira account.
func (h *ProfileHandler) Workload(c fiber.Ctx) error {
	accountID := c.Params("accountID")
	if accountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "account id is required"})
	}

	workload, err := h.jiraService.Workload(c.Context(), accountID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(workload)
}
