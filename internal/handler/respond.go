package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/resourceiq/devmatch/internal/port"
)

// fail maps service errors onto HTTP statuses and renders the standard
// error body.
func fail(c fiber.Ctx, err error) error {
	var ve *port.ValidationError
	var de *port.DataError
	var pe *port.ProviderError

	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = fiber.StatusBadRequest
	case errors.As(err, &de):
		status = fiber.StatusNotFound
	case errors.As(err, &pe):
		status = fiber.StatusBadGateway
	case errors.Is(err, port.ErrGitHubNotConfigured),
		errors.Is(err, port.ErrJiraNotConfigured),
		errors.Is(err, port.ErrEmbedderNotConfigured):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
