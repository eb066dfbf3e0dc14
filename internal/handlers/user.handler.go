package handlers

import (
	"policybook/internal/app"
	userController "policybook/internal/controllers/users"
	"policybook/internal/handlers/middleware"
	"policybook/internal/logger"
	. "policybook/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Handler
	controller   userController.UserController
	cookieSecure bool
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	log := logger.New("handlers").File("user_handler")
	return &UserHandler{
		controller:   *app.UserController,
		cookieSecure: app.Config.SecurityCookieSecure,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users")
	users.Post("/login", h.login)

	users.Get("/me", h.middleware.AuthRequired(), h.getUser)
	users.Post("/logout", h.middleware.AuthRequired(), h.logout)
}

func (h *UserHandler) getUser(c *fiber.Ctx) error {
	log := h.log.Function("getUser")

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		log.ErMsg("No actor found in locals")
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "error", "error": "failed to get user"})
	}

	user, err := h.controller.Me(c.Context(), actor)
	if err != nil {
		return h.fail(c, log, "failed to get user", err)
	}

	return c.JSON(fiber.Map{"message": "success", "user": user})
}

func (h *UserHandler) logout(c *fiber.Ctx) error {
	log := h.log.Function("logout")

	if err := h.controller.Logout(c.Context(), middleware.SessionIDFrom(c)); err != nil {
		return h.fail(c, log, "failed to log out", err)
	}

	c.ClearCookie(middleware.SessionCookie)
	return c.JSON(fiber.Map{"message": "success"})
}

func (h *UserHandler) login(c *fiber.Ctx) error {
	log := h.log.Function("login")

	var loginRequest LoginRequest
	if err := c.BodyParser(&loginRequest); err != nil {
		return h.badRequest(c, log, "failed to parse login request", err)
	}

	user, session, err := h.controller.Login(c.Context(), loginRequest)
	if err != nil {
		return h.fail(c, log, "login failed", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{"message": "success", "user": user})
}
