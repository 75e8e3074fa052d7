package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/taekup/taekup-server/app/models"
	"github.com/taekup/taekup-server/app/repository"
	"github.com/taekup/taekup-server/internal/pkg/cache"
	"github.com/taekup/taekup-server/internal/pkg/database"
	"github.com/taekup/taekup-server/internal/pkg/env"
	"github.com/taekup/taekup-server/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())
	ensureSuperAdmin()

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "TaekUp Server",
		BodyLimit: 10 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	basePath := findBasePath()
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// ensureSuperAdmin seeds the first super-admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when no users exist yet, so a fresh deployment can log in.
func ensureSuperAdmin() {
	userRepo := repository.GetGlobalFactory().GetUserRepository()
	count, err := userRepo.Count()
	if err != nil {
		log.Printf("Warning: could not check for existing users: %v", err)
		return
	}
	if count > 0 {
		return
	}

	email := env.GetEnv("ADMIN_EMAIL", "")
	password := env.GetEnv("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		log.Println("No users exist and ADMIN_EMAIL/ADMIN_PASSWORD are not set; admin login will be unavailable")
		return
	}

	user, err := models.CreateUser(env.GetEnv("ADMIN_NAME", "Super Admin"), email, password)
	if err != nil {
		log.Printf("Warning: could not build initial admin user: %v", err)
		return
	}
	user.Role = models.ROLE_SUPER_ADMIN
	if err := userRepo.Create(user); err != nil {
		log.Printf("Warning: could not create initial admin user: %v", err)
		return
	}
	log.Printf("Created initial super admin account for %s", email)
}

// findBasePath resolves the project root whether we run from the root or from
// cmd/taekup.
func findBasePath() string {
	basePaths := []string{
		"./",
		"../../",
		"../../../",
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			return path
		}
	}
	panic("Could not find project root directory")
}
