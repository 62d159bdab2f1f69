package utils

import (
	"math/rand"
	"time"

	"github.com/dmutua254/home_services/models"
	"gorm.io/gorm"
)

const referenceSuffixLength = 8
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomReference(r *rand.Rand) string {
	b := make([]byte, referenceSuffixLength)
	for i := range b {
		b[i] = letterBytes[r.Intn(len(letterBytes))]
	}
	return "BK-" + string(b)
}

// GenerateUniqueBookingReference returns a human-quotable reference like
// "BK-7F3K9Q2M", unique across bookings.
func GenerateUniqueBookingReference(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		ref := randomReference(seededRand)

		var booking models.Booking
		err := tx.Where("reference = ?", ref).First(&booking).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ref, nil
			}
			return "", err
		}
	}
}
