package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/taekup/taekup-server/app/controllers"
	"github.com/taekup/taekup-server/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Public signup flow
	v1.Post("/checkout/sessions", controllers.HandleCreateCheckoutSession)

	// Admin auth
	auth := v1.Group("/auth")
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/logout", controllers.HandleLogout)
	auth.Post("/password/forgot", controllers.HandleForgotPassword)
	auth.Post("/password/reset", controllers.HandleResetPassword)
	auth.Get("/me", controllers.HandleMe)

	// Club tooling, session protected
	clubs := v1.Group("/clubs", middleware.RequireAuth)
	clubs.Post("/:clubID/students/import", controllers.HandleRosterImport)
	clubs.Get("/:clubID/students", controllers.HandleAdminClubStudents)
	clubs.Get("/:clubID/class-plans", controllers.HandleListClassPlans)

	plans := v1.Group("/class-plans", middleware.RequireAuth)
	plans.Post("/", controllers.HandleGenerateClassPlan)
	plans.Get("/:id", controllers.HandleGetClassPlan)

	// Super-admin dashboard
	admin := v1.Group("/admin", middleware.RequireSuperAdmin)
	admin.Get("/dashboard", controllers.HandleAdminDashboard)
	admin.Get("/clubs", controllers.HandleAdminClubs)
	admin.Get("/clubs/:clubID", controllers.HandleAdminClubDetail)
	admin.Get("/payments", controllers.HandleAdminPayments)
	admin.Get("/activity", controllers.HandleAdminActivity)
	admin.Get("/email-logs", controllers.HandleAdminEmailLogs)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
