package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/dmutua254/home_services/cache"
	"github.com/dmutua254/home_services/database"
	"github.com/dmutua254/home_services/models"
	"github.com/dmutua254/home_services/notifications"
	"github.com/dmutua254/home_services/payments"
	"github.com/dmutua254/home_services/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerifyPaymentRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
	OrderID   string `json:"orderId" validate:"required"`
}

// VerifyPayPalPayment resolves an asynchronous PayPal settlement into the
// booking's definitive payment state. The client polls this; responses are:
// success (settled snapshot), status "pending" (poll again), or a terminal
// failure message. Refund-related failures also write a retry-block marker so
// the same (booking, order) pair cannot be hammered for the session window.
func VerifyPayPalPayment(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	customerID, _ := uuid.Parse(claims["user_id"].(string))

	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Missing payment information"})
	}

	ctx := c.Context()

	blocked, err := cache.IsVerificationBlocked(ctx, req.BookingID, req.OrderID)
	if err != nil {
		log.Printf("Verification block lookup failed: %v", err)
	}
	if blocked {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Payment verification already failed for this booking. Please wait or contact support.",
		})
	}

	var booking models.Booking
	if err := database.DB.Preload("Service").First(&booking, "id = ?", req.BookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Booking not found"})
	}
	if booking.CustomerID != customerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "This is not your booking"})
	}

	// A just-refunded booking is in cooldown: fail terminally and block the
	// pair for the rest of the session.
	if booking.Status == models.BookingStatusCancelled && booking.PaymentStatus == models.PaymentStatusRefunded &&
		booking.RefundedAt != nil && time.Since(*booking.RefundedAt) < refundCooldown {
		if err := cache.BlockVerification(ctx, req.BookingID, req.OrderID); err != nil {
			log.Printf("Failed to write verification block marker: %v", err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "This booking was recently refunded. Please wait 5 minutes before retrying.",
		})
	}

	var order models.PaymentOrder
	if err := database.DB.First(&order, "booking_id = ?", booking.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "No payment order found for this booking"})
	}
	if order.ProviderOrderID == nil || *order.ProviderOrderID != req.OrderID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Order does not match this booking"})
	}

	// Already settled: the snapshot is the answer, no PayPal round trip.
	if booking.PaymentStatus == models.PaymentStatusPaid {
		return c.JSON(fiber.Map{"success": true, "data": booking})
	}

	remote, err := payments.GetPayPalOrder(req.OrderID)
	if err != nil {
		log.Printf("🔥 PayPal order lookup failed for %s: %v", req.OrderID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Payment processor unavailable"})
	}

	switch remote.Status {
	case "COMPLETED":
		// Captured out-of-band (webhook raced us); settle locally.
	case "APPROVED":
		captured, err := payments.CapturePayPalOrder(req.OrderID)
		if err != nil {
			log.Printf("🔥 PayPal capture failed for %s: %v", req.OrderID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Payment processor unavailable"})
		}
		if captured.Status != "COMPLETED" {
			return c.JSON(fiber.Map{"success": false, "status": "pending"})
		}
	case "CREATED", "SAVED", "PAYER_ACTION_REQUIRED":
		return c.JSON(fiber.Map{"success": false, "status": "pending"})
	default:
		markPaymentFailed(&booking, &order)
		return c.JSON(fiber.Map{"success": false, "message": "Payment was not completed by PayPal"})
	}

	if err := settlePayment(&booking, &order); err != nil {
		log.Printf("🔥 Failed to settle payment for booking %s: %v", booking.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to finalize payment"})
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// settlePayment marks the booking paid, which is what makes it visible to
// providers, and fans out the notifications.
func settlePayment(booking *models.Booking, order *models.PaymentOrder) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		order.Status = models.OrderStatusCompleted
		order.CapturedAt = &now
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		booking.PaymentStatus = models.PaymentStatusPaid
		return tx.Save(booking).Error
	})
	if err != nil {
		return err
	}

	go notifications.SendEmail(booking.CustomerName, booking.CustomerEmail,
		"Payment Received", "<h1>Payment Confirmed</h1><p>Your payment was successful. A provider will accept your booking shortly.</p>")
	websocket.BroadcastBookingPaid(booking)
	return nil
}

func markPaymentFailed(booking *models.Booking, order *models.PaymentOrder) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order.Status = models.OrderStatusFailed
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		booking.PaymentStatus = models.PaymentStatusFailed
		return tx.Save(booking).Error
	})
	if err != nil {
		log.Printf("🔥 Failed to mark payment failed for booking %s: %v", booking.ID, err)
	}
}

type paypalWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		// Capture and refund events carry the order id in supplementary data.
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// HandlePayPalWebhook is the asynchronous fallback: captures that settle after
// the client stopped polling, and refunds issued from the PayPal side. Events
// are deduplicated by id.
func HandlePayPalWebhook(c *fiber.Ctx) error {
	var event paypalWebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse webhook payload"})
	}

	fresh, err := cache.MarkWebhookProcessed(c.Context(), event.ID)
	if err != nil {
		log.Printf("Webhook dedup lookup failed: %v", err)
	} else if !fresh {
		return c.JSON(fiber.Map{"success": true, "message": "Webhook already processed"})
	}

	orderID := event.Resource.SupplementaryData.RelatedIDs.OrderID
	if orderID == "" {
		orderID = event.Resource.ID
	}

	var order models.PaymentOrder
	if err := database.DB.First(&order, "provider_order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Payment order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", order.BookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Booking not found"})
	}

	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.COMPLETED":
		if booking.PaymentStatus == models.PaymentStatusPaid {
			return c.JSON(fiber.Map{"success": true, "message": "Already settled"})
		}
		if err := settlePayment(&booking, &order); err != nil {
			log.Printf("🔥 CRITICAL: webhook settle failed for order %s: %v", orderID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to process webhook"})
		}
	case "PAYMENT.CAPTURE.REFUNDED":
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			order.Status = models.OrderStatusRefunded
			order.RefundedAt = &now
			if err := tx.Save(&order).Error; err != nil {
				return err
			}
			booking.PaymentStatus = models.PaymentStatusRefunded
			booking.Status = models.BookingStatusCancelled
			booking.RefundedAt = &now
			return tx.Save(&booking).Error
		})
		if err != nil {
			log.Printf("🔥 CRITICAL: webhook refund failed for order %s: %v", orderID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to process webhook"})
		}
		go notifications.SendEmail(booking.CustomerName, booking.CustomerEmail,
			"Your Booking Was Refunded", "<h1>Refund Processed</h1><p>Your payment has been refunded and the booking cancelled.</p>")
	default:
		// Unhandled event types are acknowledged so PayPal stops retrying.
	}

	return c.JSON(fiber.Map{"success": true, "message": "Webhook processed"})
}
