package repository

import (
	"github.com/isushmeeta/AI-HMS/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(db *gorm.DB, notification *entity.Notification) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Notification, error)
	// FindByRecipient lists notifications for a doctor or a patient,
	// newest first. Exactly one of the two ids is non-nil.
	FindByRecipient(db *gorm.DB, doctorID, patientID *uuid.UUID) ([]entity.Notification, error)
	// MarkRead flips is_read for a notification that is still unread.
	// Returns affected rows: 0 means it was already read (or missing).
	MarkRead(db *gorm.DB, id uuid.UUID) (int64, error)
	CountUnread(db *gorm.DB, doctorID, patientID *uuid.UUID) (int64, error)
}
