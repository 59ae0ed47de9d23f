package repository

import (
	"errors"

	"github.com/isushmeeta/AI-HMS/internal/domain/entity"
	domainRepo "github.com/isushmeeta/AI-HMS/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type notificationRepository struct{}

func NewNotificationRepository() domainRepo.NotificationRepository {
	return &notificationRepository{}
}

func (r *notificationRepository) Create(db *gorm.DB, notification *entity.Notification) error {
	return db.Create(notification).Error
}

func (r *notificationRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Notification, error) {
	var notification entity.Notification
	err := db.Where("id = ?", id).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindByRecipient(db *gorm.DB, doctorID, patientID *uuid.UUID) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := recipientScope(db, doctorID, patientID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead atomically flips is_read ONLY if still unread.
// Returns affected rows: 1 = flipped now, 0 = already read or missing.
func (r *notificationRepository) MarkRead(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) CountUnread(db *gorm.DB, doctorID, patientID *uuid.UUID) (int64, error) {
	var count int64
	err := recipientScope(db.Model(&entity.Notification{}), doctorID, patientID).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}

func recipientScope(db *gorm.DB, doctorID, patientID *uuid.UUID) *gorm.DB {
	if doctorID != nil {
		return db.Where("doctor_id = ?", *doctorID)
	}
	return db.Where("patient_id = ?", *patientID)
}
