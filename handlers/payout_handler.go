package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmutua254/home_services/database"
	"github.com/dmutua254/home_services/models"
	"github.com/dmutua254/home_services/notifications"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayoutWithdrawalRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// RequestPayout moves part of the provider's balance into a pending
// withdrawal. The balance is debited up front under a row lock so two
// concurrent requests cannot both drain the same funds.
func RequestPayout(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	var req PayoutWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "A positive amount is required"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var provider models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&provider, "id = ?", providerID).Error; err != nil {
			return errors.New("provider account not found")
		}
		if provider.CurrentBalance < req.Amount {
			return errors.New("insufficient balance for this payout request")
		}

		provider.CurrentBalance -= req.Amount
		if err := tx.Save(&provider).Error; err != nil {
			return err
		}

		withdrawal := models.PayoutRequest{
			ProviderID:  providerID,
			Amount:      req.Amount,
			Status:      "pending",
			RequestedAt: time.Now(),
		}
		return tx.Create(&withdrawal).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Payout request submitted"})
}

// GetMyPayoutRequests lists the provider's withdrawals, newest first.
func GetMyPayoutRequests(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	providerID, _ := uuid.Parse(claims["user_id"].(string))

	var requests []models.PayoutRequest
	database.DB.Where("provider_id = ?", providerID).Order("requested_at desc").Find(&requests)

	return c.JSON(fiber.Map{"success": true, "data": requests})
}

// ListPayoutRequests shows admins the pending withdrawal queue.
func ListPayoutRequests(c *fiber.Ctx) error {
	var requests []models.PayoutRequest
	database.DB.Preload("Provider").Where("status = ?", "pending").Order("requested_at asc").Find(&requests)
	return c.JSON(fiber.Map{"success": true, "data": requests})
}

type ProcessPayoutDecision struct {
	Decision   string `json:"decision" validate:"required,oneof=complete reject"`
	AdminNotes string `json:"adminNotes"`
}

// ProcessPayoutRequest settles a pending withdrawal. Rejection returns the
// funds to the provider's balance; completion only records that the money
// was sent out-of-band.
func ProcessPayoutRequest(c *fiber.Ctx) error {
	requestID := c.Params("requestId")

	var req ProcessPayoutDecision
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Decision must be complete or reject"})
	}

	var withdrawal models.PayoutRequest
	if err := database.DB.Preload("Provider").First(&withdrawal, "id = ?", requestID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Payout request not found"})
	}
	if withdrawal.Status != "pending" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "Payout request already processed"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		withdrawal.Status = req.Decision
		withdrawal.AdminNotes = &req.AdminNotes
		withdrawal.ProcessedAt = &now
		if err := tx.Save(&withdrawal).Error; err != nil {
			return err
		}

		if req.Decision == "reject" {
			return tx.Model(&models.User{}).
				Where("id = ?", withdrawal.ProviderID).
				Update("current_balance", gorm.Expr("current_balance + ?", withdrawal.Amount)).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to process payout request"})
	}

	provider := withdrawal.Provider
	if req.Decision == "complete" {
		go notifications.SendEmail(
			provider.FullName,
			provider.Email,
			"Your Payout Has Been Sent",
			fmt.Sprintf("<h1>Payout Processed</h1><p>Hello %s,</p><p>Your payout of £%.2f has been sent.</p>", provider.FullName, withdrawal.Amount),
		)
	} else {
		go notifications.SendEmail(
			provider.FullName,
			provider.Email,
			"Update on Your Payout Request",
			fmt.Sprintf("<h1>Payout Request Update</h1><p>Hello %s,</p><p>Your payout request for £%.2f was rejected and the funds returned to your balance.</p><p><b>Notes:</b> %s</p>", provider.FullName, withdrawal.Amount, req.AdminNotes),
		)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Payout request processed"})
}
