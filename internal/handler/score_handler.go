package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/resourceiq/devmatch/internal/service"
)

const (
	defaultBestFits = 10
	maxBestFits     = 100
)

// ScoreHandler exposes the task-to-developer ranking endpoint.
type ScoreHandler struct {
	scoreService *service.ScoreService
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(scoreService *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

// Register sets up scoring routes.
func (h *ScoreHandler) Register(router fiber.Router) {
	router.Post("/score/best-fits", h.BestFits)
}

// BestFits ranks developers against a task description.
func (h *ScoreHandler) BestFits(c fiber.Ctx) error {
	var body struct {
		TaskDescription string `json:"task_description"`
		MaxResults      int    `json:"max_results"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.MaxResults == 0 {
		body.MaxResults = defaultBestFits
	}
	if body.MaxResults < 1 || body.MaxResults > maxBestFits {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_results must be between 1 and 100"})
	}

	profiles, err := h.scoreService.BestFits(c.Context(), body.TaskDescription, body.MaxResults)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"profiles": profiles, "count": len(profiles)})
}
