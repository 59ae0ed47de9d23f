package service

import (
	"context"
	"fmt"
	"time"

	"github.com/isushmeeta/AI-HMS/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Redis key prefixes for unread notification counters
	RedisDoctorUnreadKeyPrefix  = "notifications:unread:doctor:"
	RedisPatientUnreadKeyPrefix = "notifications:unread:patient:"

	// Batch size for startup sync
	unreadSyncBatchSize = 500
)

// UnreadCounterService keeps per-recipient unread notification counters in
// Redis so the unread badge does not hit the database on every poll.
//
// The database stays the source of truth: counters are rebuilt from it on
// startup, and every Redis failure after that is logged and ignored - the
// usecase falls back to a DB count when the counter cannot be read.
type UnreadCounterService struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewUnreadCounterService(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *UnreadCounterService {
	return &UnreadCounterService{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

// unreadRow is the per-recipient aggregate read during startup sync
type unreadRow struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Unread    int64
}

// SyncOnStartup rebuilds all unread counters from the database.
// Processes recipients in batches and executes a fresh pipeline per batch.
// Should be called before accepting traffic.
func (s *UnreadCounterService) SyncOnStartup(ctx context.Context) error {
	startTime := time.Now()
	totalSynced := 0
	offset := 0

	for {
		var rows []unreadRow
		err := s.db.WithContext(ctx).Model(&entity.Notification{}).
			Select("doctor_id, patient_id, COUNT(*) as unread").
			Where("is_read = ?", false).
			Group("doctor_id, patient_id").
			Order("doctor_id, patient_id").
			Limit(unreadSyncBatchSize).
			Offset(offset).
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("query unread counts at offset %d: %w", offset, err)
		}
		if len(rows) == 0 {
			break
		}

		pipe := s.redisClient.TxPipeline()
		for _, row := range rows {
			key, ok := unreadKey(row.DoctorID, row.PatientID)
			if !ok {
				continue
			}
			pipe.Set(ctx, key, row.Unread, 0)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("pipeline exec at offset %d: %w", offset, err)
		}

		totalSynced += len(rows)
		if len(rows) < unreadSyncBatchSize {
			break
		}
		offset += unreadSyncBatchSize

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.log.Infof("Unread counter sync completed: %d recipients in %v", totalSynced, time.Since(startTime))
	return nil
}

// IncrUnread bumps the counter after a notification insert committed.
// Failures are non-fatal: the counter re-syncs on next startup.
func (s *UnreadCounterService) IncrUnread(ctx context.Context, doctorID, patientID *uuid.UUID) {
	key, ok := unreadKey(doctorID, patientID)
	if !ok {
		return
	}
	if err := s.redisClient.Incr(ctx, key).Err(); err != nil {
		s.log.Warnf("Failed to increment unread counter %s (non-fatal): %+v", key, err)
	}
}

// DecrUnread lowers the counter after a notification was marked read.
// Clamped at zero in Redis so a missed increment never goes negative.
func (s *UnreadCounterService) DecrUnread(ctx context.Context, doctorID, patientID *uuid.UUID) {
	key, ok := unreadKey(doctorID, patientID)
	if !ok {
		return
	}
	if err := decrUnreadScript.Run(ctx, s.redisClient, []string{key}).Err(); err != nil {
		s.log.Warnf("Failed to decrement unread counter %s (non-fatal): %+v", key, err)
	}
}

// GetUnread reads the counter. The ok result is false when the key is
// missing or Redis is unreachable; callers fall back to the database.
func (s *UnreadCounterService) GetUnread(ctx context.Context, doctorID, patientID *uuid.UUID) (int64, bool) {
	key, keyOK := unreadKey(doctorID, patientID)
	if !keyOK {
		return 0, false
	}
	count, err := s.redisClient.Get(ctx, key).Int64()
	if err != nil {
		if err != redis.Nil {
			s.log.Warnf("Failed to read unread counter %s: %+v", key, err)
		}
		return 0, false
	}
	return count, true
}

// decrUnreadScript decrements but never below zero
var decrUnreadScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if not current or tonumber(current) <= 0 then
		redis.call('SET', KEYS[1], 0)
		return 0
	end
	return redis.call('DECR', KEYS[1])
`)

func unreadKey(doctorID, patientID *uuid.UUID) (string, bool) {
	if doctorID != nil {
		return RedisDoctorUnreadKeyPrefix + doctorID.String(), true
	}
	if patientID != nil {
		return RedisPatientUnreadKeyPrefix + patientID.String(), true
	}
	return "", false
}
