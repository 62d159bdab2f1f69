package jobs

import (
	"log"
	"time"

	"github.com/dmutua254/home_services/database"
	"github.com/dmutua254/home_services/models"
)

// Bookings abandoned at checkout hold no money and no assignment; after an
// hour they are cancelled so the slot opens up again.
const pendingPaymentTTL = time.Hour

func ExpireUnpaidBookings() {
	log.Println("Running job: ExpireUnpaidBookings...")

	cutoff := time.Now().Add(-pendingPaymentTTL)

	result := database.DB.Model(&models.Booking{}).
		Where("status = ? AND payment_status = ? AND created_at < ?",
			models.BookingStatusPending, models.PaymentStatusPending, cutoff).
		Update("status", models.BookingStatusCancelled)

	if result.Error != nil {
		log.Printf("Error expiring unpaid bookings: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Expired %d unpaid bookings", result.RowsAffected)
	}
}
