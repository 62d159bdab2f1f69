package routes

import (
	"github.com/dmutua254/home_services/handlers"
	"github.com/dmutua254/home_services/middleware"
	"github.com/gofiber/fiber/v2"
)

func PayoutRoutes(app *fiber.App) {
	api := app.Group("/api")

	payouts := api.Group("/payouts", middleware.Protected(), middleware.ProviderRequired())
	payouts.Post("/request", handlers.RequestPayout)
	payouts.Get("/requests", handlers.GetMyPayoutRequests)

	admin := api.Group("/admin/payout-requests", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/", handlers.ListPayoutRequests)
	admin.Post("/:requestId/process", handlers.ProcessPayoutRequest)
}
