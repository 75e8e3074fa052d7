package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Wire shapes for the Stripe objects embedded in webhook payloads. We decode
// only the fields the handlers read; everything else stays in the stored
// payload JSON.

type CheckoutSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	Customer        string `json:"customer"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
	Subscription string `json:"subscription"`
	AmountTotal  int64  `json:"amount_total"`
	Currency     string `json:"currency"`
	LineItems    struct {
		Data []SessionLineItem `json:"data"`
	} `json:"line_items"`
}

type SessionLineItem struct {
	Description string `json:"description"`
	AmountTotal int64  `json:"amount_total"`
	Price       Price  `json:"price"`
}

type Invoice struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	CustomerEmail     string `json:"customer_email"`
	AmountPaid        int64  `json:"amount_paid"`
	AmountDue         int64  `json:"amount_due"`
	Currency          string `json:"currency"`
	PaymentIntent     string `json:"payment_intent"`
	StatusTransitions struct {
		PaidAt int64 `json:"paid_at"`
	} `json:"status_transitions"`
	Lines struct {
		Data []InvoiceLine `json:"data"`
	} `json:"lines"`
}

type InvoiceLine struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Period      struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	} `json:"period"`
	Price Price `json:"price"`
}

type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
}

type SubscriptionItem struct {
	Price Price `json:"price"`
}

type Price struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Nickname   string `json:"nickname"`
	Recurring  struct {
		Interval string `json:"interval"`
	} `json:"recurring"`
}

type Customer struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func decodeObject(ev *Event, out interface{}) error {
	if len(ev.ObjectRaw) == 0 {
		return fmt.Errorf("%w: event %s has no data object", ErrMalformedPayload, ev.ID)
	}
	if err := json.Unmarshal(ev.ObjectRaw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// FirstEmail returns the primary customer email on a checkout session, with
// the nested customer_details fallback.
func (s *CheckoutSession) FirstEmail() string {
	if e := strings.TrimSpace(s.CustomerEmail); e != "" {
		return e
	}
	return strings.TrimSpace(s.CustomerDetails.Email)
}

// billingIntervalDays is the cutoff above which a line-item period counts as
// annual billing rather than monthly.
const billingIntervalDays = 35

// IntervalForPeriod applies the billing period heuristic: a span longer than
// 35 days is an annual subscription, anything else monthly.
func IntervalForPeriod(start, end int64) string {
	if start > 0 && end > start {
		if time.Unix(end, 0).Sub(time.Unix(start, 0)) > billingIntervalDays*24*time.Hour {
			return "Annual"
		}
	}
	return "Monthly"
}

func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
