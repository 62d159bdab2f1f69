package services

import (
	"log"
	"math"
	"strconv"
	"time"

	config "github.com/dmutua254/home_services/configs"
	"github.com/dmutua254/home_services/models"
	"gorm.io/gorm"
)

// ProviderEarnings is the provider's share of a booking price after platform
// commission.
func ProviderEarnings(price, commissionRate float64) float64 {
	if commissionRate < 0 || commissionRate >= 1 {
		commissionRate = 0
	}
	return math.Round(price*(1-commissionRate)*100) / 100
}

func CommissionRate() float64 {
	rate, err := strconv.ParseFloat(config.Config("PLATFORM_COMMISSION_RATE"), 64)
	if err != nil {
		log.Printf("Invalid PLATFORM_COMMISSION_RATE, defaulting to 0: %v", err)
		return 0
	}
	return rate
}

// ReleasePayout credits the assigned provider and stamps the booking's payout
// as processed. Caller must have already verified the customer confirmed
// completion; this runs inside the caller's transaction.
func ReleasePayout(tx *gorm.DB, booking *models.Booking) error {
	if booking.AssignedProviderID == nil {
		return gorm.ErrRecordNotFound
	}

	earnings := ProviderEarnings(booking.TotalPrice, CommissionRate())
	if err := tx.Model(&models.User{}).
		Where("id = ?", booking.AssignedProviderID).
		Update("current_balance", gorm.Expr("current_balance + ?", earnings)).Error; err != nil {
		return err
	}

	now := time.Now()
	booking.PayoutStatus = models.PayoutStatusProcessed
	booking.PayoutProcessedAt = &now
	return tx.Save(booking).Error
}
