package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	config "github.com/dmutua254/home_services/configs"
	"github.com/dmutua254/home_services/database"
	"github.com/dmutua254/home_services/models"
	"github.com/dmutua254/home_services/notifications"
	"github.com/dmutua254/home_services/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const assignedPageSize = 10

var errAssignmentConflict = errors.New("booking already assigned to another provider")

// providerBookingView is a Booking plus the caller's own availability claim.
type providerBookingView struct {
	models.Booking
	IsAvailable bool `json:"isAvailable"`
}

// GetAssignedBookings lists bookings visible to the calling provider:
// paid, not rejected by them, and either unassigned or theirs. Items still
// eligible for action come first, resolved ones after, newest first within
// each group.
func GetAssignedBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	visible := func() *gorm.DB {
		return database.DB.Model(&models.Booking{}).
			Where("payment_status = ?", models.PaymentStatusPaid).
			Where("assigned_provider_id IS NULL OR assigned_provider_id = ?", providerID).
			Where("id NOT IN (?)", database.DB.Model(&models.BookingRejection{}).
				Select("booking_id").Where("provider_id = ?", providerID))
	}

	var total int64
	visible().Count(&total)

	var bookings []models.Booking
	visible().
		Preload("Service").
		Order("CASE WHEN status IN ('completed','cancelled') THEN 1 ELSE 0 END, created_at DESC").
		Offset((page - 1) * assignedPageSize).
		Limit(assignedPageSize).
		Find(&bookings)

	totalPages := int((total + assignedPageSize - 1) / assignedPageSize)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    bookings,
		"pagination": fiber.Map{
			"page":       page,
			"totalPages": totalPages,
			"total":      total,
		},
	})
}

// GetPaidBookings is the availability screen feed: paid bookings the provider
// could claim, with their own claim state projected in.
func GetPaidBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Service").
		Where("payment_status = ?", models.PaymentStatusPaid).
		Where("status NOT IN ?", []string{models.BookingStatusCompleted, models.BookingStatusCancelled}).
		Where("assigned_provider_id IS NULL OR assigned_provider_id = ?", providerID).
		Where("id NOT IN (?)", database.DB.Model(&models.BookingRejection{}).
			Select("booking_id").Where("provider_id = ?", providerID)).
		Order("created_at desc").
		Find(&bookings)

	var availabilityRows []models.BookingAvailability
	database.DB.Where("provider_id = ?", providerID).Find(&availabilityRows)
	available := make(map[uuid.UUID]bool, len(availabilityRows))
	for _, row := range availabilityRows {
		available[row.BookingID] = row.IsAvailable
	}

	views := make([]providerBookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, providerBookingView{Booking: b, IsAvailable: available[b.ID]})
	}

	return c.JSON(fiber.Map{"success": true, "data": views})
}

type AvailabilityRequest struct {
	BookingID   string `json:"bookingId" validate:"required,uuid"`
	IsAvailable *bool  `json:"isAvailable" validate:"required"`
}

// ToggleAvailability records a provider's claim on a paid booking. The row
// written here is the source of truth; a claim against a booking held by
// another provider is a conflict, never a silent success.
func ToggleAvailability(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	var req AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.PaymentStatus != models.PaymentStatusPaid {
			return errors.New("booking is not paid yet")
		}
		if booking.AssignedProviderID != nil && *booking.AssignedProviderID != providerID {
			return errAssignmentConflict
		}

		claim := models.BookingAvailability{
			BookingID:   bookingID,
			ProviderID:  providerID,
			IsAvailable: *req.IsAvailable,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "provider_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_available", "updated_at"}),
		}).Create(&claim).Error
	})
	if err != nil {
		if errors.Is(err, errAssignmentConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Availability updated"})
}

type AcceptBookingRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
}

// AcceptBooking is the single-winner claim. The row lock makes the
// read-check-write a compare-and-swap: of two concurrent accepts, exactly one
// commits; the other sees the assignment and gets a conflict.
func AcceptBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	var req AcceptBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	var booking models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.PaymentStatus != models.PaymentStatusPaid {
			return errors.New("booking is not paid yet")
		}
		if booking.Status == models.BookingStatusCompleted || booking.Status == models.BookingStatusCancelled {
			return errors.New("booking is no longer open")
		}
		if booking.AssignedProviderID != nil {
			if *booking.AssignedProviderID == providerID {
				// Idempotent: re-accepting your own assignment is a no-op.
				return nil
			}
			return errAssignmentConflict
		}

		booking.AssignmentStatus = models.AssignmentAccepted
		booking.AssignedProviderID = &providerID
		booking.Status = models.BookingStatusConfirmed
		return tx.Save(&booking).Error
	})
	if err != nil {
		if errors.Is(err, errAssignmentConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	go notifications.SendEmail(booking.CustomerName, booking.CustomerEmail,
		"A Provider Accepted Your Booking!",
		fmt.Sprintf("<h1>Booking Confirmed</h1><p>A service provider has accepted your booking %s and will be with you as scheduled.</p>", booking.Reference))

	return c.JSON(fiber.Map{"success": true, "message": "Booking accepted"})
}

type RejectBookingRequest struct {
	BookingID       string `json:"bookingId" validate:"required,uuid"`
	RejectionReason string `json:"rejectionReason" validate:"required,min=1"`
}

// RejectBooking hides the booking from this provider only. Exclusivity for
// everyone else is untouched; re-invoking with the same bookingId is safe.
func RejectBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	var req RejectBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "A rejection reason is required"})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}

		rejection := models.BookingRejection{
			BookingID:  bookingID,
			ProviderID: providerID,
			Reason:     req.RejectionReason,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "provider_id"}},
			DoNothing: true,
		}).Create(&rejection).Error; err != nil {
			return err
		}

		// Any standing availability claim from this provider goes with it.
		return tx.Where("booking_id = ? AND provider_id = ?", bookingID, providerID).
			Delete(&models.BookingAvailability{}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Booking rejected"})
}

type CompleteBookingRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
}

// MarkBookingCompleted is the provider half of the completion handshake.
func MarkBookingCompleted(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	var req CompleteBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	var booking models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.AssignedProviderID == nil || *booking.AssignedProviderID != providerID {
			return errors.New("you are not the provider for this booking")
		}
		if booking.AssignmentStatus != models.AssignmentAccepted {
			return errors.New("only accepted bookings can be marked as complete")
		}
		if booking.Status == models.BookingStatusCompleted || booking.Status == models.BookingStatusCancelled {
			return errors.New("booking is already resolved")
		}

		now := time.Now()
		booking.ProviderMarkedCompleted = true
		booking.Status = models.BookingStatusCompleted
		booking.CompletionDate = &now
		return tx.Save(&booking).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	confirmLink := fmt.Sprintf("%s/confirm-booking/%s", config.Config("FRONTEND_URL"), booking.ID)
	go notifications.SendEmail(booking.CustomerName, booking.CustomerEmail,
		"Please Confirm Your Completed Booking",
		fmt.Sprintf("<h1>Service Completed</h1><p>Your provider marked booking %s as complete. Please <a href='%s'>confirm completion</a> so we can release their payment.</p>", booking.Reference, confirmLink))

	return c.JSON(fiber.Map{"success": true, "message": "Booking marked as completed"})
}

type ConfirmCompletionRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
}

// ConfirmCompletion is the customer half. It can never precede the provider's
// mark, and it is what releases the payout.
func ConfirmCompletion(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	var req ConfirmCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	var booking models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.CustomerID != customerID {
			return errors.New("this is not your booking")
		}
		if booking.PaymentStatus != models.PaymentStatusPaid {
			return errors.New("booking is not paid")
		}
		if booking.Status != models.BookingStatusCompleted || !booking.ProviderMarkedCompleted {
			return errors.New("the provider has not marked this booking as completed yet")
		}
		if booking.CustomerConfirmed {
			return errors.New("completion already confirmed")
		}

		booking.CustomerConfirmed = true
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		return services.ReleasePayout(tx, &booking)
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	if booking.AssignedProviderID != nil {
		var provider models.User
		if database.DB.First(&provider, "id = ?", booking.AssignedProviderID).Error == nil {
			go notifications.SendEmail(provider.FullName, provider.Email,
				"Payout Released", "<h1>Payment on the Way</h1><p>The customer confirmed completion and your earnings have been credited.</p>")
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "Booking completion confirmed"})
}
