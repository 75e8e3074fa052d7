package payments

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taekup/taekup-server/app/models"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetClubByEmail(email string) (*models.Club, error) {
	var club models.Club
	err := r.db.Where("email = ?", email).First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *gormRepository) CreatePayment(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// ClaimEmailSend performs the conditional insert that decides the single
// winner for a (club, email type, dedup key) notification. Only the caller
// that actually created the row may send; everyone else observes the
// existing row and skips.
func (r *gormRepository) ClaimEmailSend(clubID *uint, emailType, dedupKey, recipient string) (bool, *models.EmailLog, error) {
	entry := &models.EmailLog{
		ClubID:    clubID,
		EmailType: emailType,
		DedupKey:  dedupKey,
		Recipient: recipient,
		Status:    models.EmailStatusPending,
	}
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "club_id"},
			{Name: "email_type"},
			{Name: "dedup_key"},
		},
		DoNothing: true,
	}).Create(entry)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	won := tx.RowsAffected > 0
	var stored models.EmailLog
	q := r.db.Where("email_type = ? AND dedup_key = ?", emailType, dedupKey)
	if clubID != nil {
		q = q.Where("club_id = ?", *clubID)
	} else {
		q = q.Where("club_id IS NULL")
	}
	if err := q.First(&stored).Error; err != nil {
		return false, nil, err
	}
	return won, &stored, nil
}

func (r *gormRepository) MarkEmailResult(id uint, status, sendError string) error {
	updates := map[string]interface{}{
		"status": status,
		"error":  sendError,
	}
	return r.db.Model(&models.EmailLog{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) CreateActivityLog(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}
