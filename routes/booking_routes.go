package routes

import (
	"github.com/dmutua254/home_services/handlers"
	"github.com/dmutua254/home_services/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api")

	booking := api.Group("/booking", middleware.Protected())
	booking.Post("/create", handlers.CreateBooking)
	booking.Get("/user/bookings", handlers.GetMyBookings)

	// Completion confirmation is customer-initiated even though the path
	// lives under the provider group on the wire.
	booking.Post("/provider/bookings/confirm", handlers.ConfirmCompletion)

	provider := api.Group("/booking/provider", middleware.Protected(), middleware.ProviderRequired())
	provider.Get("/assigned", handlers.GetAssignedBookings)
	provider.Get("/bookings/paid", handlers.GetPaidBookings)
	provider.Post("/bookings/accept-booking", handlers.AcceptBooking)
	provider.Post("/bookings/reject-booking", handlers.RejectBooking)
	provider.Post("/bookings/complete", handlers.MarkBookingCompleted)
	provider.Post("/bookings/availability", handlers.ToggleAvailability)
}
