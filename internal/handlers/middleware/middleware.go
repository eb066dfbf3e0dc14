package middleware

import (
	"context"
	"strings"

	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "policybook_session"

	actorLocal   = "actor"
	sessionLocal = "sessionID"
)

type SessionReader interface {
	Get(ctx context.Context, id string) (services.Session, bool, error)
}

type Middleware struct {
	sessions SessionReader
	log      logger.Logger
}

func New(sessions SessionReader) Middleware {
	return Middleware{
		sessions: sessions,
		log:      logger.New("middleware"),
	}
}

// AuthRequired resolves the session cookie (or a bearer token carrying the
// same id) into an Actor stored in locals.
func (m Middleware) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.Function("AuthRequired")

		id := c.Cookies(SessionCookie)
		if id == "" {
			id = strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
		}
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"message": "authentication required"})
		}

		session, found, err := m.sessions.Get(c.Context(), id)
		if err != nil {
			log.Er("failed to load session", err, "path", c.Path())
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"message": "error", "error": "failed to load session"})
		}
		if !found {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"message": "session expired"})
		}

		c.Locals(actorLocal, session.Actor())
		c.Locals(sessionLocal, session.ID)
		return c.Next()
	}
}

// RequireRole rejects requests whose actor ranks below role. It must run after
// AuthRequired.
func (m Middleware) RequireRole(role Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"message": "authentication required"})
		}

		if !actor.Role.AtLeast(role) {
			m.log.Function("RequireRole").Warn("role too low",
				"user", actor.Login, "role", actor.Role, "required", role, "path", c.Path())
			return c.Status(fiber.StatusForbidden).
				JSON(fiber.Map{"message": "forbidden", "required": role})
		}

		return c.Next()
	}
}

func ActorFrom(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(actorLocal).(Actor)
	return actor, ok
}

func SessionIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocal).(string)
	return id
}
