package models

import "time"

const (
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

// Payment is an append-only record of an observed invoice event. Amounts are
// stored in minor units exactly as delivered by the provider. ClubID is
// nullable because a payment can arrive for a customer email that has no
// local club yet.
type Payment struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	ClubID                *uint      `gorm:"index;default:null" json:"club_id,omitempty"`
	StripeInvoiceID       string     `gorm:"type:varchar(100);not null;index" json:"stripe_invoice_id"`
	StripePaymentIntentID string     `gorm:"type:varchar(100);default:null" json:"stripe_payment_intent_id"`
	Amount                int64      `gorm:"not null" json:"amount"`
	Currency              string     `gorm:"type:varchar(10);not null;default:'usd'" json:"currency"`
	Status                string     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaidAt                *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	PeriodStart           *time.Time `gorm:"type:timestamp;default:null" json:"period_start,omitempty"`
	PeriodEnd             *time.Time `gorm:"type:timestamp;default:null" json:"period_end,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

// DailyStats represents a per-day count for dashboard charts
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
