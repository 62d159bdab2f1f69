package routes

import (
	"github.com/dmutua254/home_services/handlers"
	"github.com/dmutua254/home_services/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/payments/webhook", handlers.HandlePayPalWebhook)

	api.Get("/payment/status/:bookingId", middleware.Protected(), handlers.GetPaymentStatus)
	api.Post("/payments/verify-paypal", middleware.Protected(), middleware.VerifyRateLimit(), handlers.VerifyPayPalPayment)
}
