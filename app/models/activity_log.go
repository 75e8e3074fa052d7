package models

import "time"

// ActivityLog is a free-form append-only audit record. Observability only;
// nothing reads it on a hot path.
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventType   string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Description string    `gorm:"type:text" json:"description"`
	Metadata    string    `gorm:"type:longtext" json:"metadata,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
