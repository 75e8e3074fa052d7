package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/taekup/taekup-server/internal/pkg/database"
	"github.com/taekup/taekup-server/internal/pkg/payments"
)

// HandleStripeWebhook receives Stripe event notifications. The flow is
// verify, persist-once, dispatch, stamp: completed duplicates are
// acknowledged without side effects, handler faults return 5xx so Stripe
// redelivers, and a redelivery of a faulted event re-runs the handler.
func HandleStripeWebhook(c *fiber.Ctx) error {
	return handleStripeWebhook(c, payments.NewVerifierFromEnv(), payments.NewProcessorFromDB(database.GetDB()))
}

func handleStripeWebhook(c *fiber.Ctx, verifier *payments.Verifier, processor *payments.Processor) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	event, err := verifier.VerifyAndParse(rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrSignatureInvalid):
			log.Warnf("rejected webhook with invalid signature: %v", err)
			return jsonError(c, fiber.StatusBadRequest, "invalid_signature")
		case errors.Is(err, payments.ErrMalformedPayload):
			return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
		case errors.Is(err, payments.ErrSecretMissing):
			log.Error("webhook received but STRIPE_WEBHOOK_SECRET is not configured")
			return jsonError(c, fiber.StatusBadRequest, "webhook_not_configured")
		default:
			return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	created, stored, err := processor.RecordWebhookEvent(ctx, payments.WebhookEventInput{
		Provider:        payments.ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(event.Payload),
		SignatureValid:  verifier.Verified(),
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "webhook_persist_failed")
	}
	if !created && !payments.ReplayNeeded(stored) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	if !processor.Handled(event.Type) {
		_ = processor.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	processErr := processor.Process(ctx, event)
	_ = processor.MarkWebhookProcessed(ctx, stored.ID, processErr)
	if processErr != nil {
		log.Errorf("webhook %s (%s) processing failed: %v", event.ID, event.Type, processErr)
		return jsonError(c, fiber.StatusInternalServerError, "event_processing_failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
