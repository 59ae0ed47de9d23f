package service

import (
	"context"
	"errors"

	"github.com/isushmeeta/AI-HMS/internal/domain/entity"
	"github.com/isushmeeta/AI-HMS/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrMissingRecipient is returned when a notification does not name
// exactly one recipient.
var ErrMissingRecipient = errors.New("notification requires exactly one recipient")

// NotifierService persists notifications on behalf of other components.
// Emit runs on the caller's transaction so an appointment write and its
// notification commit or roll back together.
type NotifierService interface {
	Emit(ctx context.Context, tx *gorm.DB, doctorID, patientID *uuid.UUID, message string) (*entity.Notification, error)
	// EmitCommitted bumps the recipient's unread counter once the
	// surrounding transaction committed. Counter failures are non-fatal.
	EmitCommitted(ctx context.Context, notification *entity.Notification)
}

type notifierService struct {
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
	counter          *UnreadCounterService
}

// NewNotifierService creates a NotifierService. The counter may be nil
// when no Redis is configured; emits then skip the counter entirely.
func NewNotifierService(log *logrus.Logger, notificationRepo repository.NotificationRepository, counter *UnreadCounterService) NotifierService {
	return &notifierService{
		log:              log,
		notificationRepo: notificationRepo,
		counter:          counter,
	}
}

func (s *notifierService) Emit(ctx context.Context, tx *gorm.DB, doctorID, patientID *uuid.UUID, message string) (*entity.Notification, error) {
	if (doctorID == nil) == (patientID == nil) {
		return nil, ErrMissingRecipient
	}

	notification := &entity.Notification{
		DoctorID:  doctorID,
		PatientID: patientID,
		Message:   message,
	}

	if err := s.notificationRepo.Create(tx, notification); err != nil {
		s.log.Warnf("Failed to create notification: %+v", err)
		return nil, err
	}

	return notification, nil
}

func (s *notifierService) EmitCommitted(ctx context.Context, notification *entity.Notification) {
	if s.counter == nil || notification == nil {
		return
	}
	s.counter.IncrUnread(ctx, notification.DoctorID, notification.PatientID)
}
