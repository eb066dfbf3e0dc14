package handlers

import (
	"policybook/internal/app"
	adminController "policybook/internal/controllers/admin"
	"policybook/internal/handlers/middleware"
	"policybook/internal/logger"
	. "policybook/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	controller adminController.AdminController
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").File("admin_handler")
	return &AdminHandler{
		controller: *app.AdminController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group("/admin", h.middleware.AuthRequired(), h.middleware.RequireRole(RoleAdmin))
	admin.Get("/users", h.listUsers)
	admin.Post("/users", h.createUser)
}

func (h *AdminHandler) listUsers(c *fiber.Ctx) error {
	log := h.log.Function("listUsers")
	actor, _ := middleware.ActorFrom(c)

	users, err := h.controller.ListUsers(c.Context(), actor)
	if err != nil {
		return h.fail(c, log, "failed to list users", err)
	}

	return c.JSON(fiber.Map{"message": "success", "users": users})
}

func (h *AdminHandler) createUser(c *fiber.Ctx) error {
	log := h.log.Function("createUser")
	actor, _ := middleware.ActorFrom(c)

	var request CreateUserRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, log, "failed to parse user", err)
	}

	user, err := h.controller.CreateUser(c.Context(), actor, request)
	if err != nil {
		return h.fail(c, log, "failed to create user", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "success", "user": user})
}
