package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taekup/taekup-server/app/models"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
	fail error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeStripe struct {
	customers     map[string]*Customer
	subscriptions map[string]*Subscription
	products      map[string]*Product
}

func (s *fakeStripe) RetrieveCustomer(_ context.Context, id string) (*Customer, error) {
	if c, ok := s.customers[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no such customer %s", id)
}

func (s *fakeStripe) RetrieveSubscription(_ context.Context, id string) (*Subscription, error) {
	if sub, ok := s.subscriptions[id]; ok {
		return sub, nil
	}
	return nil, fmt.Errorf("no such subscription %s", id)
}

func (s *fakeStripe) RetrievePrice(_ context.Context, id string) (*Price, error) {
	return nil, fmt.Errorf("no such price %s", id)
}

func (s *fakeStripe) RetrieveProduct(_ context.Context, id string) (*Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no such product %s", id)
}

func (s *fakeStripe) CreateCheckoutSession(_ context.Context, _ CheckoutSessionInput) (*CheckoutSession, error) {
	return nil, errors.New("not implemented")
}

type fenceKey struct {
	ClubID    uint
	HasClub   bool
	EmailType string
	DedupKey  string
}

type fakeRepo struct {
	clubs        map[string]*models.Club
	webhooks     map[string]*models.WebhookEvent
	payments     []*models.Payment
	emailLogs    map[fenceKey]*models.EmailLog
	activity     []*models.ActivityLog
	nextID       uint
	activityFail error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		clubs:     map[string]*models.Club{},
		webhooks:  map[string]*models.WebhookEvent{},
		emailLogs: map[fenceKey]*models.EmailLog{},
	}
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := r.webhooks[key]; ok {
		return false, existing, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.webhooks[key] = event
	return true, event, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, ev := range r.webhooks {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return errors.New("webhook event not found")
}

func (r *fakeRepo) GetClubByEmail(email string) (*models.Club, error) {
	if club, ok := r.clubs[email]; ok {
		return club, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CreatePayment(payment *models.Payment) error {
	r.nextID++
	payment.ID = r.nextID
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakeRepo) ClaimEmailSend(clubID *uint, emailType, dedupKey, recipient string) (bool, *models.EmailLog, error) {
	key := fenceKey{EmailType: emailType, DedupKey: dedupKey}
	if clubID != nil {
		key.ClubID = *clubID
		key.HasClub = true
	}
	if existing, ok := r.emailLogs[key]; ok {
		return false, existing, nil
	}
	r.nextID++
	entry := &models.EmailLog{
		ID:        r.nextID,
		ClubID:    clubID,
		EmailType: emailType,
		DedupKey:  dedupKey,
		Recipient: recipient,
		Status:    models.EmailStatusPending,
	}
	r.emailLogs[key] = entry
	return true, entry, nil
}

func (r *fakeRepo) MarkEmailResult(id uint, status, sendError string) error {
	for _, entry := range r.emailLogs {
		if entry.ID == id {
			entry.Status = status
			entry.Error = sendError
			return nil
		}
	}
	return errors.New("email log not found")
}

func (r *fakeRepo) CreateActivityLog(entry *models.ActivityLog) error {
	if r.activityFail != nil {
		return r.activityFail
	}
	r.activity = append(r.activity, entry)
	return nil
}

func newTestProcessor() (*Processor, *fakeRepo, *fakeMailer, *fakeStripe) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	stripe := &fakeStripe{
		customers:     map[string]*Customer{},
		subscriptions: map[string]*Subscription{},
		products:      map[string]*Product{},
	}
	return NewProcessor(repo, stripe, mailer), repo, mailer, stripe
}

func eventWithObject(t *testing.T, id, eventType string, object interface{}) *Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return &Event{ID: id, Type: eventType, ObjectRaw: raw}
}

func TestProcessUnknownEventTypeIsIgnored(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()

	ev := eventWithObject(t, "evt_1", "customer.updated", map[string]string{"id": "cus_1"})
	require.NoError(t, p.Process(context.Background(), ev))

	assert.Empty(t, repo.payments)
	assert.Empty(t, repo.activity)
	assert.Empty(t, mailer.sent)
	assert.False(t, p.Handled("customer.updated"))
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	p, _, _, _ := newTestProcessor()

	in := WebhookEventInput{
		Provider:        ProviderStripe,
		ProviderEventID: "evt_dup",
		EventType:       EventCheckoutCompleted,
		PayloadJSON:     `{"id":"evt_dup"}`,
		SignatureValid:  true,
	}
	created, first, err := p.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	created, second, err := p.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordWebhookEventFallsBackToPayloadHash(t *testing.T) {
	p, _, _, _ := newTestProcessor()

	in := WebhookEventInput{
		Provider:    ProviderStripe,
		EventType:   EventPaymentSucceeded,
		PayloadJSON: `{"some":"payload"}`,
	}
	created, stored, err := p.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, stored.ProviderEventID, "hash:")

	// Same payload, same derived ID
	created, _, err = p.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestReplayNeeded(t *testing.T) {
	now := time.Now()

	assert.False(t, ReplayNeeded(nil))
	assert.True(t, ReplayNeeded(&models.WebhookEvent{}))
	assert.True(t, ReplayNeeded(&models.WebhookEvent{ProcessedAt: &now, ProcessingError: "db gone"}))
	assert.False(t, ReplayNeeded(&models.WebhookEvent{ProcessedAt: &now}))
}

func TestRedeliveryAfterFaultStillNeedsReplay(t *testing.T) {
	p, _, _, _ := newTestProcessor()

	in := WebhookEventInput{
		Provider:        ProviderStripe,
		ProviderEventID: "evt_flaky",
		EventType:       EventPaymentSucceeded,
		PayloadJSON:     `{"id":"evt_flaky"}`,
	}
	created, stored, err := p.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	require.True(t, created)

	// First attempt faults; the stamp records the error.
	require.NoError(t, p.MarkWebhookProcessed(context.Background(), stored.ID, errors.New("db gone")))

	created, stored, err = p.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, ReplayNeeded(stored))

	// Second attempt succeeds; further redeliveries are plain duplicates.
	require.NoError(t, p.MarkWebhookProcessed(context.Background(), stored.ID, nil))
	created, stored, err = p.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, ReplayNeeded(stored))
}

func TestCheckoutCompletedSendsConfirmationOnce(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()
	repo.clubs["owner@dojo.com"] = &models.Club{ID: 7, Name: "Tiger Dojo", OwnerName: "Kim", Email: "owner@dojo.com"}

	session := CheckoutSession{
		ID:            "cs_1",
		CustomerEmail: "owner@dojo.com",
		AmountTotal:   4900,
		Currency:      "usd",
	}
	session.LineItems.Data = []SessionLineItem{{Description: "TaekUp Pro"}}

	ev := eventWithObject(t, "evt_c1", EventCheckoutCompleted, session)
	require.NoError(t, p.Process(context.Background(), ev))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "owner@dojo.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "Tiger Dojo")
	assert.Contains(t, mailer.sent[0].Body, "TaekUp Pro")
	require.Len(t, repo.activity, 1)

	// Provider retries with a fresh event ID; the fence must hold
	ev2 := eventWithObject(t, "evt_c2", EventCheckoutCompleted, session)
	require.NoError(t, p.Process(context.Background(), ev2))
	assert.Len(t, mailer.sent, 1)
	assert.Len(t, repo.activity, 2)
}

func TestCheckoutCompletedRecordsSendFailure(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()
	repo.clubs["owner@dojo.com"] = &models.Club{ID: 7, Name: "Tiger Dojo", Email: "owner@dojo.com"}
	mailer.fail = errors.New("smtp down")

	ev := eventWithObject(t, "evt_c1", EventCheckoutCompleted, CheckoutSession{
		ID:            "cs_1",
		CustomerEmail: "owner@dojo.com",
	})
	require.NoError(t, p.Process(context.Background(), ev))

	key := fenceKey{ClubID: 7, HasClub: true, EmailType: models.EmailTypePaymentConfirmation}
	entry := repo.emailLogs[key]
	require.NotNil(t, entry)
	assert.Equal(t, models.EmailStatusFailed, entry.Status)
	assert.Contains(t, entry.Error, "smtp down")
}

func TestCheckoutCompletedWithoutClubAuditsOnly(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()

	ev := eventWithObject(t, "evt_c1", EventCheckoutCompleted, CheckoutSession{
		ID:            "cs_1",
		CustomerEmail: "stranger@example.com",
	})
	require.NoError(t, p.Process(context.Background(), ev))

	assert.Empty(t, mailer.sent)
	require.Len(t, repo.activity, 1)
	assert.Contains(t, repo.activity[0].Description, "no matching club")
}

func TestCheckoutCompletedWithoutEmailIsSkipped(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()

	ev := eventWithObject(t, "evt_c1", EventCheckoutCompleted, CheckoutSession{ID: "cs_1"})
	require.NoError(t, p.Process(context.Background(), ev))

	assert.Empty(t, mailer.sent)
	assert.Empty(t, repo.activity)
}

func TestSubscriptionCreatedAuditsWithResolvedEmail(t *testing.T) {
	p, repo, mailer, stripeAPI := newTestProcessor()
	stripeAPI.customers["cus_1"] = &Customer{ID: "cus_1", Email: "owner@dojo.com"}

	ev := eventWithObject(t, "evt_s1", EventSubscriptionCreated, Subscription{ID: "sub_1", Customer: "cus_1"})
	require.NoError(t, p.Process(context.Background(), ev))

	assert.Empty(t, mailer.sent)
	require.Len(t, repo.activity, 1)
	assert.Contains(t, repo.activity[0].Description, "owner@dojo.com")
}

func TestSubscriptionCreatedDeletedCustomerIsSkipped(t *testing.T) {
	p, repo, _, stripeAPI := newTestProcessor()
	stripeAPI.customers["cus_gone"] = &Customer{ID: "cus_gone", Deleted: true}

	ev := eventWithObject(t, "evt_s1", EventSubscriptionCreated, Subscription{ID: "sub_1", Customer: "cus_gone"})
	require.NoError(t, p.Process(context.Background(), ev))
	assert.Empty(t, repo.activity)
}

func TestPaymentSucceededCreatesPaymentAndReceipt(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()
	repo.clubs["owner@dojo.com"] = &models.Club{ID: 3, Name: "Tiger Dojo", Email: "owner@dojo.com"}

	invoice := Invoice{
		ID:            "in_1",
		CustomerEmail: "owner@dojo.com",
		AmountPaid:    4900,
		Currency:      "usd",
		PaymentIntent: "pi_1",
	}
	invoice.StatusTransitions.PaidAt = 1717000000
	invoice.Lines.Data = []InvoiceLine{{Description: "TaekUp Pro"}}
	invoice.Lines.Data[0].Period.Start = 1717000000
	invoice.Lines.Data[0].Period.End = 1719592000

	ev := eventWithObject(t, "evt_p1", EventPaymentSucceeded, invoice)
	require.NoError(t, p.Process(context.Background(), ev))

	require.Len(t, repo.payments, 1)
	payment := repo.payments[0]
	assert.Equal(t, int64(4900), payment.Amount)
	assert.Equal(t, models.PaymentStatusSucceeded, payment.Status)
	assert.Equal(t, "in_1", payment.StripeInvoiceID)
	require.NotNil(t, payment.ClubID)
	assert.Equal(t, uint(3), *payment.ClubID)
	assert.NotNil(t, payment.PaidAt)
	assert.NotNil(t, payment.PeriodStart)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Subject, "Payment received")

	// Redelivery of the same invoice: new payment attempt rows are fine to
	// skip here because the event record already deduped; but a second
	// distinct event for the same invoice must not re-send the receipt.
	ev2 := eventWithObject(t, "evt_p2", EventPaymentSucceeded, invoice)
	require.NoError(t, p.Process(context.Background(), ev2))
	assert.Len(t, mailer.sent, 1)
}

func TestPaymentSucceededUnknownClubStillRecordsPayment(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()

	ev := eventWithObject(t, "evt_p1", EventPaymentSucceeded, Invoice{
		ID:            "in_2",
		CustomerEmail: "stranger@example.com",
		AmountPaid:    1500,
		Currency:      "eur",
	})
	require.NoError(t, p.Process(context.Background(), ev))

	require.Len(t, repo.payments, 1)
	assert.Nil(t, repo.payments[0].ClubID)
	assert.Empty(t, mailer.sent)
	assert.Len(t, repo.activity, 1)
}

func TestPaymentSucceededWithoutEmailIsSkipped(t *testing.T) {
	p, repo, _, _ := newTestProcessor()

	ev := eventWithObject(t, "evt_p1", EventPaymentSucceeded, Invoice{ID: "in_3", AmountPaid: 1500})
	require.NoError(t, p.Process(context.Background(), ev))

	assert.Empty(t, repo.payments)
	assert.Empty(t, repo.activity)
}

func TestPaymentFailedRecordsFailureWithoutEmail(t *testing.T) {
	p, repo, mailer, _ := newTestProcessor()
	repo.clubs["owner@dojo.com"] = &models.Club{ID: 3, Name: "Tiger Dojo", Email: "owner@dojo.com"}

	ev := eventWithObject(t, "evt_f1", EventPaymentFailed, Invoice{
		ID:            "in_4",
		CustomerEmail: "owner@dojo.com",
		AmountDue:     4900,
		Currency:      "usd",
	})
	require.NoError(t, p.Process(context.Background(), ev))

	require.Len(t, repo.payments, 1)
	payment := repo.payments[0]
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Equal(t, int64(4900), payment.Amount)
	assert.Nil(t, payment.PaidAt)

	assert.Empty(t, mailer.sent)
	require.Len(t, repo.activity, 1)
	assert.Contains(t, repo.activity[0].Description, "failed")
}

func TestFailedAuditWriteIsAFault(t *testing.T) {
	p, repo, _, _ := newTestProcessor()
	repo.activityFail = errors.New("db gone")

	ev := eventWithObject(t, "evt_f1", EventPaymentFailed, Invoice{
		ID:            "in_5",
		CustomerEmail: "owner@dojo.com",
		AmountDue:     100,
		Currency:      "usd",
	})
	err := p.Process(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity log")
}

func TestMalformedObjectPayloadIsAnError(t *testing.T) {
	p, _, _, _ := newTestProcessor()

	ev := &Event{ID: "evt_bad", Type: EventPaymentSucceeded, ObjectRaw: []byte(`{"amount_paid":"notanumber"}`)}
	err := p.Process(context.Background(), ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
