package handlers

import (
	"context"
	"time"

	"policybook/internal/app"
	"policybook/internal/logger"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, app *app.App) {
	log := logger.New("handlers").File("health_handler").Function("health")

	router.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		code := fiber.StatusOK

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		sqlDB, err := app.Database.SQL.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.Er("database ping failed", err)
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":      status,
			"version":     app.Config.GeneralVersion,
			"environment": app.Config.Environment,
		})
	})
}
