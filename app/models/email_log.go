package models

import "time"

const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
)

// Email types recorded in the log. The log doubles as the idempotency fence
// for notification sends: the unique index on (club_id, email_type,
// dedup_key) makes the conditional insert pick exactly one winner per key.
const (
	EmailTypePaymentConfirmation = "payment_confirmation"
	EmailTypePaymentReceipt      = "payment_receipt"
	EmailTypePasswordReset       = "password_reset"
)

// EmailLog records an attempted notification send. A row is claimed with
// status=pending before the send and updated to sent/failed afterwards, so
// the existence of any row for a key suppresses re-sends on event replay.
type EmailLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClubID    *uint     `gorm:"index:ux_email_logs_fence,unique,priority:1;default:null" json:"club_id,omitempty"`
	EmailType string    `gorm:"type:varchar(50);not null;index:ux_email_logs_fence,unique,priority:2" json:"email_type"`
	DedupKey  string    `gorm:"type:varchar(191);not null;default:'';index:ux_email_logs_fence,unique,priority:3" json:"dedup_key"`
	Recipient string    `gorm:"type:varchar(200);not null" json:"recipient"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
