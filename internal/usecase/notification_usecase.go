package usecase

import (
	"context"
	"errors"

	"github.com/isushmeeta/AI-HMS/internal/converter"
	"github.com/isushmeeta/AI-HMS/internal/delivery/dto"
	"github.com/isushmeeta/AI-HMS/internal/domain/repository"
	"github.com/isushmeeta/AI-HMS/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationUsecase interface {
	ListNotifications(ctx context.Context, doctorID, patientID *uuid.UUID) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) (*dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, doctorID, patientID *uuid.UUID) (*dto.UnreadCountResponse, error)
}

type notificationUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
	counter          *service.UnreadCounterService
}

// NewNotificationUsecase creates the notification read-side usecase.
// The counter may be nil; unread counts then always come from the database.
func NewNotificationUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	notificationRepo repository.NotificationRepository,
	counter *service.UnreadCounterService,
) NotificationUsecase {
	return &notificationUsecase{
		db:               db,
		log:              log,
		notificationRepo: notificationRepo,
		counter:          counter,
	}
}

// ListNotifications returns a recipient's notifications, newest first.
// Exactly one of doctorID/patientID must be set.
func (u *notificationUsecase) ListNotifications(ctx context.Context, doctorID, patientID *uuid.UUID) (*dto.NotificationListResponse, error) {
	if (doctorID == nil) == (patientID == nil) {
		return nil, service.ErrMissingRecipient
	}

	notifications, err := u.notificationRepo.FindByRecipient(u.db.WithContext(ctx), doctorID, patientID)
	if err != nil {
		u.log.Warnf("Failed to list notifications: %+v", err)
		return nil, err
	}

	return &dto.NotificationListResponse{
		Notifications: converter.NotificationsToResponses(notifications),
		Total:         len(notifications),
	}, nil
}

// MarkRead flags a notification as read. Idempotent: marking an
// already-read notification succeeds without touching the row again.
func (u *notificationUsecase) MarkRead(ctx context.Context, notificationID uuid.UUID) (*dto.NotificationResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.notificationRepo.MarkRead(tx, notificationID)
	if err != nil {
		u.log.Warnf("Failed to mark notification %s read: %+v", notificationID, err)
		return nil, err
	}

	notification, err := u.notificationRepo.FindByID(tx, notificationID)
	if err != nil {
		u.log.Warnf("Failed to find notification %s: %+v", notificationID, err)
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	// Only the call that actually flipped the flag moves the counter
	if affected > 0 && u.counter != nil {
		u.counter.DecrUnread(ctx, notification.DoctorID, notification.PatientID)
	}

	return converter.NotificationToResponse(notification), nil
}

// UnreadCount serves the unread badge. Prefers the Redis counter and
// falls back to a database count when it is unavailable.
func (u *notificationUsecase) UnreadCount(ctx context.Context, doctorID, patientID *uuid.UUID) (*dto.UnreadCountResponse, error) {
	if (doctorID == nil) == (patientID == nil) {
		return nil, service.ErrMissingRecipient
	}

	if u.counter != nil {
		if count, ok := u.counter.GetUnread(ctx, doctorID, patientID); ok {
			return &dto.UnreadCountResponse{UnreadCount: count}, nil
		}
	}

	count, err := u.notificationRepo.CountUnread(u.db.WithContext(ctx), doctorID, patientID)
	if err != nil {
		u.log.Warnf("Failed to count unread notifications: %+v", err)
		return nil, err
	}
	return &dto.UnreadCountResponse{UnreadCount: count}, nil
}
