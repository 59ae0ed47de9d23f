package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isushmeeta/AI-HMS/internal/delivery/dto"
	"github.com/isushmeeta/AI-HMS/internal/delivery/http/handler"
	"github.com/isushmeeta/AI-HMS/internal/delivery/http/middleware"
	"github.com/isushmeeta/AI-HMS/internal/domain/entity"
	"github.com/isushmeeta/AI-HMS/internal/repository"
	"github.com/isushmeeta/AI-HMS/internal/service"
	"github.com/isushmeeta/AI-HMS/internal/usecase"
	"github.com/isushmeeta/AI-HMS/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiEnv struct {
	server  *httptest.Server
	db      *gorm.DB
	doctor  *entity.Doctor
	patient *entity.Patient
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

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
	notifier := service.NewNotifierService(log, notificationRepo, nil)

	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, appointmentRepo, doctorRepo, patientRepo, notifier, dayLock)
	notificationUsecase := usecase.NewNotificationUsecase(db, log, notificationRepo, nil)

	customValidator := validator.NewValidator()
	router := NewRouter(
		handler.NewAppointmentHandler(appointmentUsecase, customValidator),
		handler.NewNotificationHandler(notificationUsecase),
		middleware.NewCORSMiddleware(),
		middleware.NewLoggingMiddleware(log),
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	doctor := &entity.Doctor{
		Name:           "Gregory House",
		Specialization: "Diagnostics",
		Contact:        "555-0100",
		Availability:   "Mon-Fri 09:00-17:00",
	}
	require.NoError(t, db.Create(doctor).Error)

	patient := &entity.Patient{
		FirstName:     "John",
		LastName:      "Smith",
		DateOfBirth:   time.Date(1985, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:        "Male",
		ContactNumber: "555-0123",
		Email:         "john.smith@example.com",
	}
	require.NoError(t, db.Create(patient).Error)

	return &apiEnv{server: server, db: db, doctor: doctor, patient: patient}
}

func (env *apiEnv) request(t *testing.T, method, path string, body interface{}) (int, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, &parsed
}

func (env *apiEnv) book(t *testing.T, date, timeOfDay, reason string) dto.AppointmentResponse {
	t.Helper()

	status, body := env.request(t, http.MethodPost, "/api/v1/appointments", dto.CreateAppointmentRequest{
		PatientID: env.patient.ID,
		DoctorID:  env.doctor.ID,
		Date:      date,
		Time:      timeOfDay,
		Reason:    reason,
	})
	require.Equal(t, http.StatusCreated, status)

	var appointment dto.AppointmentResponse
	require.NoError(t, json.Unmarshal(body.Data, &appointment))
	return appointment
}

func TestAPI_BookingFlow(t *testing.T) {
	env := newAPIEnv(t)

	created := env.book(t, "2024-03-15", "09:00", "Persistent migraine")
	assert.Equal(t, string(entity.AppointmentStatusRequested), created.Status)
	assert.Equal(t, "John Smith", created.PatientName)
	assert.Equal(t, "Gregory House", created.DoctorName)
	assert.Nil(t, created.SerialNumber)

	// Confirm the booking; the first confirmed slot of the day gets serial 1
	status, body := env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/confirm", created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var confirmed dto.AppointmentResponse
	require.NoError(t, json.Unmarshal(body.Data, &confirmed))
	assert.Equal(t, string(entity.AppointmentStatusScheduled), confirmed.Status)
	require.NotNil(t, confirmed.SerialNumber)
	assert.Equal(t, 1, *confirmed.SerialNumber)

	// The confirmed slot now rejects further bookings
	status, _ = env.request(t, http.MethodPost, "/api/v1/appointments", dto.CreateAppointmentRequest{
		PatientID: env.patient.ID,
		DoctorID:  env.doctor.ID,
		Date:      "2024-03-15",
		Time:      "09:00",
	})
	assert.Equal(t, http.StatusConflict, status)

	// A different slot on the same day is still open
	second := env.book(t, "2024-03-15", "10:30", "Follow-up")
	status, body = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/confirm", second.ID), nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &confirmed))
	require.NotNil(t, confirmed.SerialNumber)
	assert.Equal(t, 2, *confirmed.SerialNumber)

	status, body = env.request(t, http.MethodGet, "/api/v1/appointments?date=2024-03-15", nil)
	require.Equal(t, http.StatusOK, status)
	var list dto.AppointmentListResponse
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "09:00", list.Appointments[0].Time)
	assert.Equal(t, "10:30", list.Appointments[1].Time)
}

func TestAPI_CreateAppointment_Validation(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, http.MethodPost, "/api/v1/appointments", map[string]string{
		"date": "2024-03-15",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Validation failed", body.Message)

	status, _ = env.request(t, http.MethodPost, "/api/v1/appointments", dto.CreateAppointmentRequest{
		PatientID: env.patient.ID,
		DoctorID:  env.doctor.ID,
		Date:      "15/03/2024",
		Time:      "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.request(t, http.MethodPost, "/api/v1/appointments", dto.CreateAppointmentRequest{
		PatientID: env.patient.ID,
		DoctorID:  env.doctor.ID,
		Date:      "2024-03-15",
		Time:      "9 am",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.request(t, http.MethodPost, "/api/v1/appointments", dto.CreateAppointmentRequest{
		PatientID: uuid.New(),
		DoctorID:  env.doctor.ID,
		Date:      "2024-03-15",
		Time:      "09:00",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_UpdateStatus(t *testing.T) {
	env := newAPIEnv(t)
	created := env.book(t, "2024-03-15", "09:00", "")

	// Requested cannot jump straight to Completed
	status, _ := env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/status", created.ID),
		dto.UpdateAppointmentStatusRequest{Status: string(entity.AppointmentStatusCompleted)})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/status", created.ID),
		dto.UpdateAppointmentStatusRequest{Status: "Approved"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/status", created.ID),
		dto.UpdateAppointmentStatusRequest{Status: string(entity.AppointmentStatusScheduled)})
	require.Equal(t, http.StatusOK, status)
	var updated dto.AppointmentResponse
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	require.NotNil(t, updated.SerialNumber)
	assert.Equal(t, 1, *updated.SerialNumber)

	status, _ = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/status", created.ID),
		dto.UpdateAppointmentStatusRequest{Status: string(entity.AppointmentStatusCompleted)})
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/status", uuid.New()),
		dto.UpdateAppointmentStatusRequest{Status: string(entity.AppointmentStatusCancelled)})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_Notifications(t *testing.T) {
	env := newAPIEnv(t)
	created := env.book(t, "2024-03-15", "09:00", "")

	// Booking notifies the doctor
	status, body := env.request(t, http.MethodGet, "/api/v1/notifications?doctor_id="+env.doctor.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	var list dto.NotificationListResponse
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Equal(t, 1, list.Total)
	assert.False(t, list.Notifications[0].IsRead)

	// Confirmation notifies the patient
	status, _ = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/appointments/%s/confirm", created.ID), nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.request(t, http.MethodGet, "/api/v1/notifications?patient_id="+env.patient.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Equal(t, 1, list.Total)
	assert.Contains(t, list.Notifications[0].Message, "Serial number: 1")

	status, body = env.request(t, http.MethodGet, "/api/v1/notifications/unread-count?doctor_id="+env.doctor.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	var count dto.UnreadCountResponse
	require.NoError(t, json.Unmarshal(body.Data, &count))
	assert.Equal(t, int64(1), count.UnreadCount)

	notificationID := list.Notifications[0].ID
	status, _ = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%s/read", notificationID), nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%s/read", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Recipient query must name exactly one of doctor_id or patient_id
	status, _ = env.request(t, http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_HealthCheck(t *testing.T) {
	env := newAPIEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
