package handlers

import (
	"errors"
	"strconv"

	"policybook/internal/app"
	"policybook/internal/common"
	"policybook/internal/handlers/middleware"
	"policybook/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	api := router.Group("/api")
	HealthHandler(api, app)
	NewUserHandler(*app, api).Register()
	NewContractHandler(*app, api).Register()
	NewImportHandler(*app, api).Register()
	NewTaskHandler(*app, api).Register()
	NewAdminHandler(*app, api).Register()

	return nil
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, common.ErrPermission):
		return fiber.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (h Handler) fail(c *fiber.Ctx, log logger.Logger, message string, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Er(message, err)
	} else {
		log.Debug(message, "status", status, "error", err)
	}

	body := fiber.Map{"message": message, "error": err.Error()}

	var validation *common.ValidationError
	if errors.As(err, &validation) {
		body["fields"] = validation.Fields
	}
	var conflict *common.ConflictError
	if errors.As(err, &conflict) {
		body["existingId"] = conflict.ExistingID
	}

	return c.Status(status).JSON(body)
}

func (h Handler) badRequest(c *fiber.Ctx, log logger.Logger, message string, err error) error {
	log.Er(message, err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}

func paramID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, &common.ValidationError{Fields: []string{"id"}, Message: "invalid id: " + c.Params("id")}
	}
	return id, nil
}
