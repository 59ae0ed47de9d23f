package usecase

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/isushmeeta/AI-HMS/internal/domain/entity"
	domainRepo "github.com/isushmeeta/AI-HMS/internal/domain/repository"
	"github.com/isushmeeta/AI-HMS/internal/repository"
	"github.com/isushmeeta/AI-HMS/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the scheduler and notifier against an in-memory database
type testEnv struct {
	db                  *gorm.DB
	appointmentUsecase  AppointmentUsecase
	notificationUsecase NotificationUsecase
	notificationRepo    domainRepo.NotificationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Single connection keeps the shared in-memory database alive and
	// serializes writes the way the production store does.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.Doctor{},
		&entity.Patient{},
		&entity.Appointment{},
		&entity.Notification{},
	))

	log := logrus.New()
	log.SetOutput(io.Discard)

	appointmentRepo := repository.NewAppointmentRepository()
	doctorRepo := repository.NewDoctorRepository()
	patientRepo := repository.NewPatientRepository()
	notificationRepo := repository.NewNotificationRepository()

	dayLock := service.NewDayLockService(log)
	t.Cleanup(dayLock.Stop)

	// No Redis in tests; unread counts fall back to the database
	notifier := service.NewNotifierService(log, notificationRepo, nil)

	return &testEnv{
		db:                  db,
		appointmentUsecase:  NewAppointmentUsecase(db, log, appointmentRepo, doctorRepo, patientRepo, notifier, dayLock),
		notificationUsecase: NewNotificationUsecase(db, log, notificationRepo, nil),
		notificationRepo:    notificationRepo,
	}
}

func (env *testEnv) seedDoctor(t *testing.T, name string) *entity.Doctor {
	t.Helper()
	doctor := &entity.Doctor{
		Name:           name,
		Specialization: "Cardiology",
		Contact:        "555-0100",
		Availability:   "Mon-Fri 09:00-17:00",
	}
	require.NoError(t, env.db.Create(doctor).Error)
	return doctor
}

func (env *testEnv) seedPatient(t *testing.T, firstName, lastName string) *entity.Patient {
	t.Helper()
	patient := &entity.Patient{
		FirstName:     firstName,
		LastName:      lastName,
		DateOfBirth:   time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:        "F",
		ContactNumber: "555-0101",
		Email:         fmt.Sprintf("%s.%s.%s@example.com", firstName, lastName, uuid.NewString()[:8]),
	}
	require.NoError(t, env.db.Create(patient).Error)
	return patient
}
