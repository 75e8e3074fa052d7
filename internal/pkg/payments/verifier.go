package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/taekup/taekup-server/internal/pkg/env"
)

var (
	// ErrSignatureInvalid means the payload failed HMAC verification; the
	// caller must reject with a 4xx and perform no side effects.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	// ErrMalformedPayload means the payload could not be decoded.
	ErrMalformedPayload = errors.New("webhook payload malformed")
	// ErrSecretMissing means no secret is configured and unsigned payloads
	// are not explicitly allowed.
	ErrSecretMissing = errors.New("webhook secret not configured")
)

// Verifier authenticates inbound Stripe events. Unsigned processing is only
// available when explicitly enabled via WEBHOOK_ALLOW_UNSIGNED, never as a
// silent fallback.
type Verifier struct {
	secret        string
	allowUnsigned bool
}

func NewVerifier(secret string, allowUnsigned bool) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret), allowUnsigned: allowUnsigned}
}

// NewVerifierFromEnv builds the verifier from STRIPE_WEBHOOK_SECRET and
// WEBHOOK_ALLOW_UNSIGNED, logging loudly when running unsigned.
func NewVerifierFromEnv() *Verifier {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	allowUnsigned := env.GetEnv("WEBHOOK_ALLOW_UNSIGNED", "false") == "true"
	if secret == "" && allowUnsigned {
		log.Printf("WARNING: STRIPE_WEBHOOK_SECRET is empty and WEBHOOK_ALLOW_UNSIGNED=true; webhook signatures will NOT be verified. Never run production like this.")
	}
	return NewVerifier(secret, allowUnsigned)
}

// VerifyAndParse validates the raw payload against the signature header and
// returns the typed event. With no secret configured it parses unverified
// payloads only in the explicitly allowed mode.
func (v *Verifier) VerifyAndParse(payload []byte, signatureHeader string) (*Event, error) {
	if v.secret != "" {
		ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		return &Event{
			ID:        ev.ID,
			Type:      string(ev.Type),
			ObjectRaw: ev.Data.Raw,
			Payload:   payload,
		}, nil
	}

	if !v.allowUnsigned {
		return nil, ErrSecretMissing
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}
	log.Printf("WARNING: accepted unsigned webhook event %s (%s)", envelope.ID, envelope.Type)
	return &Event{
		ID:        envelope.ID,
		Type:      envelope.Type,
		ObjectRaw: envelope.Data.Object,
		Payload:   payload,
	}, nil
}

// Verified reports whether this verifier actually checks signatures.
func (v *Verifier) Verified() bool {
	return v.secret != ""
}
