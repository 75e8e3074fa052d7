package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPaymentConfirmation(t *testing.T) {
	subject, body, err := RenderPaymentConfirmation(PaymentEmailData{
		OwnerName: "Kim",
		ClubName:  "Tiger Dojo",
		PlanName:  "TaekUp Pro",
		Amount:    "$49.00 USD",
		Interval:  "Monthly",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "subscription")
	assert.Contains(t, body, "Kim")
	assert.Contains(t, body, "Tiger Dojo")
	assert.Contains(t, body, "TaekUp Pro")
	assert.Contains(t, body, "$49.00 USD")
	assert.Contains(t, body, "Monthly")
}

func TestRenderPaymentReceipt(t *testing.T) {
	subject, body, err := RenderPaymentReceipt(PaymentEmailData{
		OwnerName: "Kim",
		ClubName:  "Tiger Dojo",
		PlanName:  "TaekUp Pro",
		Amount:    "€49.00 EUR",
		Interval:  "Annual",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "Payment received")
	assert.Contains(t, body, "Annual")
}

func TestRenderPasswordReset(t *testing.T) {
	subject, body, err := RenderPasswordReset(PasswordResetData{
		Name:     "Kim",
		ResetURL: "https://app.taekup.com/admin/reset-password?token=abc",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "password")
	assert.Contains(t, body, "token=abc")
}

func TestRenderEscapesHTML(t *testing.T) {
	_, body, err := RenderPaymentConfirmation(PaymentEmailData{
		OwnerName: "<script>alert(1)</script>",
		ClubName:  "Dojo",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$49.00 USD", FormatAmount(4900, "usd"))
	assert.Equal(t, "€10.50 EUR", FormatAmount(1050, "eur"))
	assert.Equal(t, "£0.99 GBP", FormatAmount(99, "gbp"))
	assert.Equal(t, "123.45 CHF", FormatAmount(12345, "chf"))
}
