package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header for the given payload the same
// way Stripe does: HMAC-SHA256 over "<timestamp>.<payload>".
func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyAndParseAcceptsValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1"}}}`)
	header := signPayload(payload, testWebhookSecret, time.Now())

	v := NewVerifier(testWebhookSecret, false)
	ev, err := v.VerifyAndParse(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventPaymentSucceeded, ev.Type)
	assert.JSONEq(t, `{"id":"in_1"}`, string(ev.ObjectRaw))
	assert.True(t, v.Verified())
}

func TestVerifyAndParseRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{}}}`)
	header := signPayload(payload, "whsec_other", time.Now())

	v := NewVerifier(testWebhookSecret, false)
	_, err := v.VerifyAndParse(payload, header)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyAndParseRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{}}}`)
	header := signPayload(payload, testWebhookSecret, time.Now())

	tampered := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{"amount_paid":999999}}}`)
	v := NewVerifier(testWebhookSecret, false)
	_, err := v.VerifyAndParse(tampered, header)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyAndParseRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{}}}`)
	header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	v := NewVerifier(testWebhookSecret, false)
	_, err := v.VerifyAndParse(payload, header)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyAndParseWithoutSecretRequiresExplicitOptIn(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	v := NewVerifier("", false)
	_, err := v.VerifyAndParse(payload, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSecretMissing)
}

func TestVerifyAndParseUnsignedModeParsesEnvelope(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)

	v := NewVerifier("", true)
	ev, err := v.VerifyAndParse(payload, "")
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.False(t, v.Verified())
}

func TestVerifyAndParseUnsignedModeRejectsGarbage(t *testing.T) {
	v := NewVerifier("", true)

	_, err := v.VerifyAndParse([]byte("not json"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = v.VerifyAndParse([]byte(`{"id":"evt_1"}`), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
