package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taekup/taekup-server/app/controllers"
	"github.com/taekup/taekup-server/internal/pkg/middleware"
	"github.com/taekup/taekup-server/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Webhooks live outside /api: providers sign the raw body and must not
	// pass through the rate limiter
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
