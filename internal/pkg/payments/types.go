package payments

import (
	"context"
	"encoding/json"

	"github.com/taekup/taekup-server/app/models"
)

const ProviderStripe = "stripe"

// Event types this processor dispatches on. Anything else is acknowledged
// and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
)

// Event is a verified provider notification. Immutable once constructed;
// retries are owned by the provider, never replayed internally.
type Event struct {
	ID        string
	Type      string
	ObjectRaw json.RawMessage
	Payload   []byte
}

// Mailer delivers a rendered notification. The SMTP implementation lives in
// internal/pkg/mail; tests use a fake.
type Mailer interface {
	Send(to, subject, body string) error
}

// StripeAPI is the read-mostly slice of the Stripe REST surface the handlers
// need for degraded-path lookups, plus checkout session creation.
type StripeAPI interface {
	RetrieveCustomer(ctx context.Context, id string) (*Customer, error)
	RetrieveSubscription(ctx context.Context, id string) (*Subscription, error)
	RetrievePrice(ctx context.Context, id string) (*Price, error)
	RetrieveProduct(ctx context.Context, id string) (*Product, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
}

// Repository provides the DB operations used by the webhook processor.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	GetClubByEmail(email string) (*models.Club, error)
	CreatePayment(payment *models.Payment) error
	ClaimEmailSend(clubID *uint, emailType, dedupKey, recipient string) (bool, *models.EmailLog, error)
	MarkEmailResult(id uint, status, sendError string) error
	CreateActivityLog(entry *models.ActivityLog) error
}

// CheckoutSessionInput describes a subscription checkout to create.
type CheckoutSessionInput struct {
	CustomerEmail     string
	ClientReferenceID string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
