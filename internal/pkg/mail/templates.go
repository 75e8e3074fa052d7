package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var paymentConfirmationTmpl = template.Must(template.New("payment_confirmation").Parse(`
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Welcome to TaekUp!</h2>
  <p>Hi {{.OwnerName}},</p>
  <p>Your subscription for <strong>{{.ClubName}}</strong> is active.</p>
  <table cellpadding="6">
    <tr><td>Plan</td><td><strong>{{.PlanName}}</strong></td></tr>
    <tr><td>Amount</td><td>{{.Amount}}</td></tr>
    <tr><td>Billing</td><td>{{.Interval}}</td></tr>
  </table>
  <p>You can manage your subscription anytime from your club settings.</p>
  <p>- The TaekUp Team</p>
</body>
</html>`))

var paymentReceiptTmpl = template.Must(template.New("payment_receipt").Parse(`
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Payment received</h2>
  <p>Hi {{.OwnerName}},</p>
  <p>We received your payment for <strong>{{.ClubName}}</strong>.</p>
  <table cellpadding="6">
    <tr><td>Plan</td><td><strong>{{.PlanName}}</strong></td></tr>
    <tr><td>Amount</td><td>{{.Amount}}</td></tr>
    <tr><td>Billing</td><td>{{.Interval}}</td></tr>
  </table>
  <p>Thanks for training with TaekUp.</p>
  <p>- The TaekUp Team</p>
</body>
</html>`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Reset your password</h2>
  <p>Hi {{.Name}},</p>
  <p>Someone requested a password reset for your TaekUp account. If this was
  you, click the link below within 24 hours:</p>
  <p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
  <p>If you did not request this, you can safely ignore this email.</p>
  <p>- The TaekUp Team</p>
</body>
</html>`))

// PaymentEmailData feeds the confirmation and receipt templates.
type PaymentEmailData struct {
	OwnerName string
	ClubName  string
	PlanName  string
	Amount    string
	Interval  string
}

// PasswordResetData feeds the password-reset template.
type PasswordResetData struct {
	Name     string
	ResetURL string
}

func RenderPaymentConfirmation(data PaymentEmailData) (string, string, error) {
	var buf bytes.Buffer
	if err := paymentConfirmationTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Your TaekUp subscription is active", buf.String(), nil
}

func RenderPaymentReceipt(data PaymentEmailData) (string, string, error) {
	var buf bytes.Buffer
	if err := paymentReceiptTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Payment received - TaekUp", buf.String(), nil
}

func RenderPasswordReset(data PasswordResetData) (string, string, error) {
	var buf bytes.Buffer
	if err := passwordResetTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Reset your TaekUp password", buf.String(), nil
}

// FormatAmount renders minor units as a human amount, e.g. 5000/"usd" -> "$50.00 USD".
func FormatAmount(amount int64, currency string) string {
	symbol := ""
	switch currency {
	case "usd", "USD":
		symbol = "$"
	case "eur", "EUR":
		symbol = "€"
	case "gbp", "GBP":
		symbol = "£"
	}
	return fmt.Sprintf("%s%.2f %s", symbol, float64(amount)/100.0, strings.ToUpper(currency))
}
