package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/taekup/taekup-server/app/models"
	"github.com/taekup/taekup-server/internal/pkg/mail"
)

// Fallbacks used when plan details cannot be derived from the event or the
// provider lookups.
const (
	defaultPlanName = "TaekUp Plan"
	defaultInterval = "monthly"
)

// Processor routes verified webhook events to their handlers and owns the
// side effects: payment rows, notification sends behind the email-log fence,
// and activity-log entries. Errors returned from Process indicate a fault the
// provider should retry (5xx); everything recoverable is swallowed here.
type Processor struct {
	repo     Repository
	stripe   StripeAPI
	mailer   Mailer
	handlers map[string]func(ctx context.Context, ev *Event) error
}

func NewProcessor(repo Repository, stripeAPI StripeAPI, mailer Mailer) *Processor {
	p := &Processor{
		repo:   repo,
		stripe: stripeAPI,
		mailer: mailer,
	}
	p.handlers = map[string]func(ctx context.Context, ev *Event) error{
		EventCheckoutCompleted:   p.handleCheckoutCompleted,
		EventSubscriptionCreated: p.handleSubscriptionCreated,
		EventPaymentSucceeded:    p.handlePaymentSucceeded,
		EventPaymentFailed:       p.handlePaymentFailed,
	}
	return p
}

// NewProcessorFromDB wires the processor with the GORM repository, the env
// Stripe client and the SMTP mailer.
func NewProcessorFromDB(db *gorm.DB) *Processor {
	return NewProcessor(NewRepository(db), NewStripeClientFromEnv(), mail.SMTPMailer{})
}

// RecordWebhookEvent persists the raw event idempotently. The returned bool
// is false for duplicate deliveries, which must be acknowledged without
// re-running the handler.
func (p *Processor) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return p.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed stamps an event as processed with an optional error.
func (p *Processor) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return p.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ReplayNeeded reports whether a redelivered event still needs its handler
// run: the stored attempt never finished, or finished with an error. The
// email-log fence keeps re-running a handler safe, so redeliveries are the
// recovery path for transient faults rather than plain duplicates.
func ReplayNeeded(stored *models.WebhookEvent) bool {
	if stored == nil {
		return false
	}
	return stored.ProcessedAt == nil || stored.ProcessingError != ""
}

// Handled reports whether a handler exists for the event type.
func (p *Processor) Handled(eventType string) bool {
	_, ok := p.handlers[eventType]
	return ok
}

// Process dispatches one verified event. A nil return means the event is
// fully acknowledged; a non-nil return means a transient fault the provider
// should redeliver. Handler panics are converted to errors so one bad
// payload cannot take the worker down.
func (p *Processor) Process(ctx context.Context, ev *Event) (err error) {
	handler, ok := p.handlers[ev.Type]
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic for event %s (%s): %v", ev.ID, ev.Type, r)
		}
	}()
	return handler(ctx, ev)
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, ev *Event) error {
	var session CheckoutSession
	if err := decodeObject(ev, &session); err != nil {
		return err
	}

	email := session.FirstEmail()
	if email == "" {
		log.Printf("checkout %s completed without a customer email, skipping", session.ID)
		return nil
	}

	club, err := p.lookupClub(email)
	if err != nil {
		return err
	}
	if club == nil {
		return p.audit("checkout.session.completed",
			fmt.Sprintf("checkout completed for %s (no matching club)", email),
			map[string]interface{}{"session_id": session.ID, "email": email})
	}

	won, claim, err := p.repo.ClaimEmailSend(&club.ID, models.EmailTypePaymentConfirmation, "", email)
	if err != nil {
		return fmt.Errorf("claim payment confirmation for club %d: %w", club.ID, err)
	}
	if won {
		planName, interval := p.resolvePlanDetails(ctx, &session)
		amount := mail.FormatAmount(session.AmountTotal, session.Currency)
		subject, body, renderErr := mail.RenderPaymentConfirmation(mail.PaymentEmailData{
			OwnerName: ownerNameOrDefault(club),
			ClubName:  club.Name,
			PlanName:  planName,
			Amount:    amount,
			Interval:  interval,
		})
		sendErr := renderErr
		if sendErr == nil {
			sendErr = p.mailer.Send(email, subject, body)
		}
		p.recordEmailResult(claim.ID, sendErr)
	} else {
		log.Printf("payment confirmation already sent for club %d, skipping", club.ID)
	}

	return p.audit("checkout.session.completed",
		fmt.Sprintf("checkout completed for club %q", club.Name),
		map[string]interface{}{"session_id": session.ID, "club_id": club.ID, "email": email, "notified": won})
}

func (p *Processor) handleSubscriptionCreated(ctx context.Context, ev *Event) error {
	var sub Subscription
	if err := decodeObject(ev, &sub); err != nil {
		return err
	}

	email := p.resolveCustomerEmail(ctx, sub.Customer)
	if email == "" {
		log.Printf("subscription %s created for missing/deleted customer %s, skipping", sub.ID, sub.Customer)
		return nil
	}

	return p.audit("customer.subscription.created",
		fmt.Sprintf("subscription %s created for %s", sub.ID, email),
		map[string]interface{}{"subscription_id": sub.ID, "email": email})
}

func (p *Processor) handlePaymentSucceeded(ctx context.Context, ev *Event) error {
	var invoice Invoice
	if err := decodeObject(ev, &invoice); err != nil {
		return err
	}

	email := strings.TrimSpace(invoice.CustomerEmail)
	if email == "" {
		email = p.resolveCustomerEmail(ctx, invoice.Customer)
	}
	if email == "" {
		log.Printf("invoice %s paid by missing/deleted customer %s, skipping", invoice.ID, invoice.Customer)
		return nil
	}

	club, err := p.lookupClub(email)
	if err != nil {
		return err
	}
	var clubID *uint
	if club != nil {
		clubID = &club.ID
	}

	payment := &models.Payment{
		ClubID:                clubID,
		StripeInvoiceID:       invoice.ID,
		StripePaymentIntentID: invoice.PaymentIntent,
		Amount:                invoice.AmountPaid,
		Currency:              invoice.Currency,
		Status:                models.PaymentStatusSucceeded,
		PaidAt:                paidAtOrNow(&invoice),
	}
	if len(invoice.Lines.Data) > 0 {
		line := invoice.Lines.Data[0]
		payment.PeriodStart = unixTime(line.Period.Start)
		payment.PeriodEnd = unixTime(line.Period.End)
	}
	if err := p.repo.CreatePayment(payment); err != nil {
		return fmt.Errorf("insert succeeded payment for invoice %s: %w", invoice.ID, err)
	}

	notified := false
	if club != nil {
		won, claim, err := p.repo.ClaimEmailSend(&club.ID, models.EmailTypePaymentReceipt, invoice.ID, email)
		if err != nil {
			return fmt.Errorf("claim payment receipt for invoice %s: %w", invoice.ID, err)
		}
		if won {
			planName, interval := planFromInvoiceLines(&invoice)
			subject, body, renderErr := mail.RenderPaymentReceipt(mail.PaymentEmailData{
				OwnerName: ownerNameOrDefault(club),
				ClubName:  club.Name,
				PlanName:  planName,
				Amount:    mail.FormatAmount(invoice.AmountPaid, invoice.Currency),
				Interval:  interval,
			})
			sendErr := renderErr
			if sendErr == nil {
				sendErr = p.mailer.Send(email, subject, body)
			}
			p.recordEmailResult(claim.ID, sendErr)
			notified = true
		}
	}

	return p.audit("invoice.payment_succeeded",
		fmt.Sprintf("payment of %s received from %s", mail.FormatAmount(invoice.AmountPaid, invoice.Currency), email),
		map[string]interface{}{
			"invoice_id": invoice.ID,
			"amount":     invoice.AmountPaid,
			"currency":   invoice.Currency,
			"email":      email,
			"notified":   notified,
		})
}

func (p *Processor) handlePaymentFailed(ctx context.Context, ev *Event) error {
	var invoice Invoice
	if err := decodeObject(ev, &invoice); err != nil {
		return err
	}

	email := strings.TrimSpace(invoice.CustomerEmail)
	if email == "" {
		email = p.resolveCustomerEmail(ctx, invoice.Customer)
	}
	if email == "" {
		log.Printf("invoice %s failed for missing/deleted customer %s, skipping", invoice.ID, invoice.Customer)
		return nil
	}

	club, err := p.lookupClub(email)
	if err != nil {
		return err
	}
	var clubID *uint
	if club != nil {
		clubID = &club.ID
	}

	payment := &models.Payment{
		ClubID:                clubID,
		StripeInvoiceID:       invoice.ID,
		StripePaymentIntentID: invoice.PaymentIntent,
		Amount:                invoice.AmountDue,
		Currency:              invoice.Currency,
		Status:                models.PaymentStatusFailed,
	}
	if err := p.repo.CreatePayment(payment); err != nil {
		return fmt.Errorf("insert failed payment for invoice %s: %w", invoice.ID, err)
	}

	// Dunning emails are the provider's job; we only record the failure.
	return p.audit("invoice.payment_failed",
		fmt.Sprintf("payment of %s failed for %s", mail.FormatAmount(invoice.AmountDue, invoice.Currency), email),
		map[string]interface{}{
			"invoice_id": invoice.ID,
			"amount":     invoice.AmountDue,
			"currency":   invoice.Currency,
			"email":      email,
		})
}

// lookupClub resolves the owning club by email. Not-found is a recoverable
// degraded path and returns (nil, nil); real DB faults propagate.
func (p *Processor) lookupClub(email string) (*models.Club, error) {
	club, err := p.repo.GetClubByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("club lookup for %s: %w", email, err)
	}
	return club, nil
}

// resolveCustomerEmail fetches the customer from Stripe and returns its
// email, or "" when the customer is gone or the lookup fails.
func (p *Processor) resolveCustomerEmail(ctx context.Context, customerID string) string {
	if strings.TrimSpace(customerID) == "" {
		return ""
	}
	customer, err := p.stripe.RetrieveCustomer(ctx, customerID)
	if err != nil {
		log.Printf("customer lookup %s failed: %v", customerID, err)
		return ""
	}
	if customer == nil || customer.Deleted {
		return ""
	}
	return strings.TrimSpace(customer.Email)
}

// resolvePlanDetails derives a human plan name and billing interval for a
// checkout session: line items first, then the subscription -> price ->
// product chain, then generic defaults.
func (p *Processor) resolvePlanDetails(ctx context.Context, session *CheckoutSession) (string, string) {
	if len(session.LineItems.Data) > 0 {
		line := session.LineItems.Data[0]
		name := strings.TrimSpace(line.Description)
		if name == "" {
			name = strings.TrimSpace(line.Price.Nickname)
		}
		interval := strings.TrimSpace(line.Price.Recurring.Interval)
		if name != "" {
			if interval == "" {
				interval = defaultInterval
			}
			return name, intervalLabel(interval)
		}
	}

	if session.Subscription != "" {
		sub, err := p.stripe.RetrieveSubscription(ctx, session.Subscription)
		if err == nil && sub != nil && len(sub.Items.Data) > 0 {
			price := sub.Items.Data[0].Price
			interval := strings.TrimSpace(price.Recurring.Interval)
			if interval == "" {
				interval = defaultInterval
			}
			if price.Product != "" {
				if product, err := p.stripe.RetrieveProduct(ctx, price.Product); err == nil && product.Name != "" {
					return product.Name, intervalLabel(interval)
				}
			}
			if price.Nickname != "" {
				return price.Nickname, intervalLabel(interval)
			}
		} else if err != nil {
			log.Printf("subscription lookup %s failed: %v", session.Subscription, err)
		}
	}

	return defaultPlanName, defaultInterval
}

func planFromInvoiceLines(invoice *Invoice) (string, string) {
	planName := defaultPlanName
	interval := defaultInterval
	if len(invoice.Lines.Data) > 0 {
		line := invoice.Lines.Data[0]
		if d := strings.TrimSpace(line.Description); d != "" {
			planName = d
		} else if n := strings.TrimSpace(line.Price.Nickname); n != "" {
			planName = n
		}
		interval = IntervalForPeriod(line.Period.Start, line.Period.End)
	}
	return planName, interval
}

func intervalLabel(interval string) string {
	switch strings.ToLower(interval) {
	case "year", "annual":
		return "Annual"
	case "month", "monthly":
		return "Monthly"
	default:
		return interval
	}
}

func ownerNameOrDefault(club *models.Club) string {
	if club.OwnerName != "" {
		return club.OwnerName
	}
	return club.Name
}

func paidAtOrNow(invoice *Invoice) *time.Time {
	if t := unixTime(invoice.StatusTransitions.PaidAt); t != nil {
		return t
	}
	now := time.Now().UTC()
	return &now
}

// recordEmailResult writes the send outcome back to the claimed log row.
// Failures here are logged, not propagated; the send already happened.
func (p *Processor) recordEmailResult(logID uint, sendErr error) {
	status := models.EmailStatusSent
	errMsg := ""
	if sendErr != nil {
		status = models.EmailStatusFailed
		errMsg = sendErr.Error()
	}
	if err := p.repo.MarkEmailResult(logID, status, errMsg); err != nil {
		log.Printf("failed to record email result for log %d: %v", logID, err)
	}
}

// audit appends one activity-log entry. A failed audit write aborts the
// handler so the provider redelivers; audit completeness is part of the
// contract.
func (p *Processor) audit(eventType, description string, metadata map[string]interface{}) error {
	payload := ""
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			payload = string(b)
		}
	}
	entry := &models.ActivityLog{
		EventType:   eventType,
		Description: description,
		Metadata:    payload,
	}
	if err := p.repo.CreateActivityLog(entry); err != nil {
		return fmt.Errorf("write activity log for %s: %w", eventType, err)
	}
	return nil
}
