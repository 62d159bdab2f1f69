package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/dmutua254/home_services/database"
	"github.com/dmutua254/home_services/models"
	"github.com/dmutua254/home_services/payments"
	"github.com/dmutua254/home_services/services"
	"github.com/dmutua254/home_services/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// How long a refunded slot stays blocked for re-booking.
const refundCooldown = 5 * time.Minute

func CreateBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}

	sched, err := req.Validate(time.Now())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid service ID"})
	}

	var service models.Service
	if err := database.DB.First(&service, "id = ? AND is_active = ?", serviceID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Service not found"})
	}

	var quote services.Quote
	if sched.IsRange() {
		quote, err = services.QuoteRange(service.Price, sched.StartTime, sched.EndTime, *sched.StartDate, *sched.EndDate)
	} else {
		quote, err = services.QuoteSingle(service.Price, sched.StartTime, sched.EndTime)
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var booking models.Booking
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// A slot vacated by a refund stays blocked for the cooldown window.
		slotDate := sched.BookingDate
		if slotDate == nil {
			slotDate = sched.StartDate
		}
		var recentRefunds int64
		tx.Model(&models.Booking{}).
			Where("service_id = ? AND status = ? AND payment_status = ? AND start_time = ? AND refunded_at > ?",
				serviceID, models.BookingStatusCancelled, models.PaymentStatusRefunded,
				sched.StartTime, time.Now().Add(-refundCooldown)).
			Where("booking_date = ? OR start_date = ?", slotDate, slotDate).
			Count(&recentRefunds)
		if recentRefunds > 0 {
			return errors.New("this slot was recently refunded, please wait a few minutes before re-booking")
		}

		reference, err := utils.GenerateUniqueBookingReference(tx)
		if err != nil {
			return err
		}

		booking = models.Booking{
			Reference:        reference,
			ServiceID:        serviceID,
			CustomerID:       customerID,
			BookingDate:      sched.BookingDate,
			StartDate:        sched.StartDate,
			EndDate:          sched.EndDate,
			StartTime:        sched.StartTime,
			EndTime:          sched.EndTime,
			CustomerName:     req.CustomerDetails.Name,
			CustomerEmail:    req.CustomerDetails.Email,
			CustomerPhone:    req.CustomerDetails.Phone,
			Address:          req.ServiceLocation.Address,
			City:             req.ServiceLocation.City,
			PostalCode:       req.ServiceLocation.PostalCode,
			SpecialRequests:  req.SpecialRequests,
			PaymentMethod:    req.PaymentMethod,
			TotalPrice:       quote.TotalPrice,
			Status:           models.BookingStatusPending,
			AssignmentStatus: models.AssignmentUnassigned,
			PaymentStatus:    models.PaymentStatusPending,
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	order, err := payments.CreatePayPalOrder(booking.TotalPrice, service.Currency, booking.ID.String())
	if err != nil {
		log.Printf("🔥 PayPal CreateOrder failed for booking %s: %v", booking.ID, err)
		booking.Status = models.BookingStatusCancelled
		database.DB.Save(&booking)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Payment could not be initiated, please try again."})
	}

	paymentOrder := models.PaymentOrder{
		BookingID:       booking.ID,
		ProviderOrderID: &order.ID,
		Amount:          booking.TotalPrice,
		Currency:        service.Currency,
		Status:          models.OrderStatusPending,
	}
	if err := database.DB.Create(&paymentOrder).Error; err != nil {
		log.Printf("🔥 Failed to record payment order %s: %v", order.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to record payment order"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"bookingId":  booking.ID.String(),
			"reference":  booking.Reference,
			"totalPrice": booking.TotalPrice,
			"paymentOrder": fiber.Map{
				"orderId":      order.ID,
				"approvalLink": order.ApprovalLink(),
			},
		},
	})
}

func GetMyBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Service").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&bookings)

	return c.JSON(fiber.Map{"success": true, "data": bookings})
}

// GetPaymentStatus is the snapshot the reconciliation loop inspects before
// verifying: booking status, payment status, and the timestamp that doubles
// as the refund time once a refund lands.
func GetPaymentStatus(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	bookingID := c.Params("bookingId")
	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Booking not found"})
	}
	if booking.CustomerID != customerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "This is not your booking"})
	}

	var order models.PaymentOrder
	database.DB.First(&order, "booking_id = ?", booking.ID)

	var completedAt *time.Time
	if booking.PaymentStatus == models.PaymentStatusRefunded {
		completedAt = booking.RefundedAt
	} else if order.CapturedAt != nil {
		completedAt = order.CapturedAt
	}

	paymentIDs := fiber.Map{"paymentCompletedAt": completedAt}
	if order.ProviderOrderID != nil {
		paymentIDs["orderId"] = *order.ProviderOrderID
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"status":        booking.Status,
			"paymentStatus": booking.PaymentStatus,
			"paymentIds":    paymentIDs,
		},
	})
}
