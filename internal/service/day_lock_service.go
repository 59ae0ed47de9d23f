package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// Interval for cleaning up stale mutexes
	lockCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	lockStaleThreshold = 10 * time.Minute
)

// DayLockService serializes mutating scheduler operations per (doctor, date).
//
// Serial numbers are assigned as count(Scheduled for doctor+date)+1 and the
// exact-slot conflict check reads the same rows, so the read-check-write
// window of two concurrent confirmations for one doctor day must not
// interleave. Holding the day lock around the transaction guarantees the
// count and the write are observed as one unit.
//
// Lock ordering: acquire the day lock FIRST, then open the DB transaction.
type DayLockService struct {
	log *logrus.Logger

	// Per-(doctor, date) mutex
	dayMu sync.Map // map[string]*mutexWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewDayLockService creates a DayLockService and starts the background
// mutex cleanup goroutine. Call Stop() during graceful shutdown.
func NewDayLockService(log *logrus.Logger) *DayLockService {
	svc := &DayLockService{
		log:      log,
		stopChan: make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *DayLockService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("DayLockService stopped")
	}
}

// Lock acquires the mutex for a doctor day and returns the unlock func.
func (s *DayLockService) Lock(doctorID uuid.UUID, date time.Time) func() {
	mt := s.getDayMutex(doctorID, date)
	mt.mu.Lock()
	return mt.mu.Unlock
}

func (s *DayLockService) getDayMutex(doctorID uuid.UUID, date time.Time) *mutexWithTimestamp {
	key := fmt.Sprintf("%s|%s", doctorID, date.Format("2006-01-02"))
	mt, _ := s.dayMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (s *DayLockService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(lockCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Day-lock cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleMutexes()
		}
	}
}

// cleanupStaleMutexes removes unused mutexes using TryLock for safety.
// The lastUsed check happens inside the lock so a concurrent Lock cannot
// refresh the timestamp between the check and the delete.
func (s *DayLockService) cleanupStaleMutexes() {
	cutoffTime := time.Now().Add(-lockStaleThreshold).Unix()
	var cleaned int

	s.dayMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffTime {
				s.dayMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}

		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned %d stale day locks", cleaned)
	}
}
