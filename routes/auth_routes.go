package routes

import (
	"github.com/dmutua254/home_services/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.RegisterUser)
	auth.Post("/login", handlers.LoginUser)
	// Deliberately outside the JWT middleware: refresh must accept tokens the
	// middleware would reject as expired.
	auth.Post("/refresh-token", handlers.RefreshToken)
}
