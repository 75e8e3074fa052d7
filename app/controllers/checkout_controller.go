package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/taekup/taekup-server/app/models"
	"github.com/taekup/taekup-server/app/repository"
	"github.com/taekup/taekup-server/internal/pkg/env"
	"github.com/taekup/taekup-server/internal/pkg/payments"
)

// CheckoutRequest is the signup payload that starts a subscription checkout.
type CheckoutRequest struct {
	ClubName  string `json:"club_name"`
	OwnerName string `json:"owner_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	PriceID   string `json:"price_id"`
}

// checkoutClubStore is the slice of the club repository the checkout flow
// needs.
type checkoutClubStore interface {
	GetByEmail(email string) (*models.Club, error)
	Create(club *models.Club) error
}

// HandleCreateCheckoutSession registers (or reuses) the club record and
// creates a Stripe Checkout Session for it. The club stays inactive until the
// webhook confirms payment.
func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	return handleCreateCheckoutSession(c, repository.GetGlobalFactory().GetClubRepository(), payments.NewStripeClientFromEnv())
}

func handleCreateCheckoutSession(c *fiber.Ctx, clubs checkoutClubStore, stripe payments.StripeAPI) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request_body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.ClubName = strings.TrimSpace(req.ClubName)
	req.PriceID = strings.TrimSpace(req.PriceID)
	if req.Email == "" || req.ClubName == "" || req.PriceID == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_required_fields")
	}

	club, err := clubs.GetByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusInternalServerError, "club_lookup_failed")
		}
		club = &models.Club{
			Name:      req.ClubName,
			Email:     req.Email,
			OwnerName: strings.TrimSpace(req.OwnerName),
			Phone:     strings.TrimSpace(req.Phone),
			Status:    models.ClubStatusInactive,
		}
		if err := club.Validate(); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid_club_data")
		}
		if err := clubs.Create(club); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "club_create_failed")
		}
	}

	appURL := strings.TrimRight(env.GetEnv("PUBLIC_APP_URL", "http://localhost:3000"), "/")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	session, err := stripe.CreateCheckoutSession(ctx, payments.CheckoutSessionInput{
		CustomerEmail:     req.Email,
		ClientReferenceID: strconv.FormatUint(uint64(club.ID), 10),
		PriceID:           req.PriceID,
		SuccessURL:        appURL + "/signup/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         appURL + "/signup/cancelled",
		Metadata: map[string]string{
			"club_id":   strconv.FormatUint(uint64(club.ID), 10),
			"club_name": club.Name,
		},
	})
	if err != nil {
		log.Errorf("checkout session creation failed for %s: %v", req.Email, err)
		return jsonError(c, fiber.StatusBadGateway, "checkout_create_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"checkout_url": session.URL,
		"session_id":   session.ID,
	})
}
