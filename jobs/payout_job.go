package jobs

import (
	"log"

	"github.com/dmutua254/home_services/database"
	"github.com/dmutua254/home_services/models"
	"github.com/dmutua254/home_services/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SweepPendingPayouts releases payouts that the confirmation path missed, for
// example when the balance credit failed mid-transaction and the customer
// never retried. Confirmation is the precondition; the sweep only finishes
// the job.
func SweepPendingPayouts() {
	log.Println("Running job: SweepPendingPayouts...")

	var stuck []models.Booking
	err := database.DB.
		Where("customer_confirmed = ? AND payout_status = ?", true, models.PayoutStatusPending).
		Find(&stuck).Error
	if err != nil {
		log.Printf("Error finding pending payouts: %v", err)
		return
	}

	for i := range stuck {
		booking := &stuck[i]
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(booking, "id = ?", booking.ID).Error; err != nil {
				return err
			}
			if booking.PayoutStatus != models.PayoutStatusPending || !booking.CustomerConfirmed {
				return nil
			}
			return services.ReleasePayout(tx, booking)
		})
		if err != nil {
			log.Printf("🔥 Failed to release payout for booking %s: %v", booking.ID, err)
			continue
		}
		log.Printf("✅ Released payout for booking %s", booking.ID)
	}
}
