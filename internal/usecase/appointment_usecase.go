package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isushmeeta/AI-HMS/internal/converter"
	"github.com/isushmeeta/AI-HMS/internal/delivery/dto"
	"github.com/isushmeeta/AI-HMS/internal/domain/entity"
	"github.com/isushmeeta/AI-HMS/internal/domain/repository"
	"github.com/isushmeeta/AI-HMS/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrSlotUnavailable     = errors.New("slot not available")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidStatus       = errors.New("unknown appointment status")
	ErrInvalidDateFormat   = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTimeFormat   = errors.New("invalid time format, use HH:MM")
)

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	ListAppointments(ctx context.Context, date string, doctorID *uuid.UUID) (*dto.AppointmentListResponse, error)
	UpdateStatus(ctx context.Context, appointmentID uuid.UUID, status string) (*dto.AppointmentResponse, error)
	ConfirmAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	patientRepo     repository.PatientRepository
	notifier        service.NotifierService
	dayLock         *service.DayLockService
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	notifier service.NotifierService,
	dayLock *service.DayLockService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		patientRepo:     patientRepo,
		notifier:        notifier,
		dayLock:         dayLock,
	}
}

// CreateAppointment books a slot request.
//
// Flow:
// 1. Parse and normalize date/time
// 2. Resolve patient and doctor (dangling references are rejected)
// 3. Exact-slot conflict check against Scheduled rows
// 4. Insert appointment as Requested + doctor notification in ONE transaction
//
// A Requested appointment does not block the slot for other requests;
// the slot is contended again at confirmation, where the first
// confirmation wins.
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	timeOfDay, err := time.Parse("15:04", req.Time)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}

	// Serialize against confirmations for the same doctor day so the
	// conflict check and the insert are observed as one unit.
	unlock := u.dayLock.Lock(req.DoctorID, date)
	defer unlock()

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	patient, err := u.patientRepo.FindByID(tx, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	doctor, err := u.doctorRepo.FindByID(tx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	taken, err := u.appointmentRepo.SlotTaken(tx, req.DoctorID, date, timeOfDay.Format("15:04"))
	if err != nil {
		u.log.Warnf("Failed to check slot for doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if taken {
		return nil, ErrSlotUnavailable
	}

	appointment := &entity.Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      timeOfDay.Format("15:04"),
		Status:    entity.AppointmentStatusRequested,
		Reason:    req.Reason,
	}
	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	message := fmt.Sprintf("New appointment: %s on %s at %s",
		patient.FullName(), appointment.Date.Format("2006-01-02"), appointment.Time)
	notification, err := u.notifier.Emit(ctx, tx, &req.DoctorID, nil, message)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}
	u.notifier.EmitCommitted(ctx, notification)

	appointment.Patient = *patient
	appointment.Doctor = *doctor

	u.log.Infof("Appointment created: id=%s, doctor=%s, slot=%s %s",
		appointment.ID, appointment.DoctorID, appointment.Date.Format("2006-01-02"), appointment.Time)
	return converter.AppointmentToResponse(appointment), nil
}

// ListAppointments returns appointments ordered by date then time.
// Empty filters return everything.
func (u *appointmentUsecase) ListAppointments(ctx context.Context, date string, doctorID *uuid.UUID) (*dto.AppointmentListResponse, error) {
	filter := repository.AppointmentFilter{DoctorID: doctorID}
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		filter.Date = &parsed
	}

	appointments, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// UpdateStatus applies a lifecycle transition. Illegal edges fail with
// ErrInvalidTransition; a transition to Scheduled goes through
// ConfirmAppointment so a serial number is always assigned.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, status string) (*dto.AppointmentResponse, error) {
	next := entity.AppointmentStatus(status)
	if !entity.ValidStatus(next) {
		return nil, ErrInvalidStatus
	}
	if next == entity.AppointmentStatusScheduled {
		return u.ConfirmAppointment(ctx, appointmentID)
	}

	current, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if current == nil {
		return nil, ErrAppointmentNotFound
	}

	// Cancelling a Scheduled appointment frees its slot and changes the
	// serial-number base count, so it contends on the same day lock.
	unlock := u.dayLock.Lock(current.DoctorID, current.Date)
	defer unlock()

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if !appointment.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	appointment.Status = next
	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		u.log.Warnf("Failed to update appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Appointment status updated: id=%s, status=%s", appointmentID, next)
	return converter.AppointmentToResponse(appointment), nil
}

// ConfirmAppointment moves a Requested appointment to Scheduled and
// assigns its serial number.
//
// Flow (under the doctor-day lock, in one transaction):
// 1. Re-read the appointment; already Scheduled is a no-op
// 2. Re-check the exact-slot conflict - confirmation is the point where
//    competing requests for one slot are authoritatively resolved
// 3. serial = count(Scheduled for doctor+date) + 1
// 4. Write status + serial, emit patient notification
func (u *appointmentUsecase) ConfirmAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	current, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if current == nil {
		return nil, ErrAppointmentNotFound
	}

	unlock := u.dayLock.Lock(current.DoctorID, current.Date)
	defer unlock()

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	// Re-confirmation is a no-op: the serial number must not be recomputed
	if appointment.IsScheduled() {
		return converter.AppointmentToResponse(appointment), nil
	}
	if !appointment.CanTransitionTo(entity.AppointmentStatusScheduled) {
		return nil, ErrInvalidTransition
	}

	taken, err := u.appointmentRepo.SlotTaken(tx, appointment.DoctorID, appointment.Date, appointment.Time)
	if err != nil {
		u.log.Warnf("Failed to check slot for doctor %s: %+v", appointment.DoctorID, err)
		return nil, err
	}
	if taken {
		return nil, ErrSlotUnavailable
	}

	count, err := u.appointmentRepo.CountScheduled(tx, appointment.DoctorID, appointment.Date)
	if err != nil {
		u.log.Warnf("Failed to count scheduled appointments for doctor %s: %+v", appointment.DoctorID, err)
		return nil, err
	}

	serial := int(count) + 1
	appointment.SerialNumber = &serial
	appointment.Status = entity.AppointmentStatusScheduled
	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		u.log.Warnf("Failed to confirm appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	doctorName := "Unknown"
	if appointment.Doctor.ID != uuid.Nil {
		doctorName = appointment.Doctor.Name
	}
	message := fmt.Sprintf("Appointment confirmed with Dr. %s on %s at %s. Serial number: %d",
		doctorName, appointment.Date.Format("2006-01-02"), appointment.Time, serial)
	notification, err := u.notifier.Emit(ctx, tx, nil, &appointment.PatientID, message)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}
	u.notifier.EmitCommitted(ctx, notification)

	u.log.Infof("Appointment confirmed: id=%s, doctor=%s, serial=%d", appointmentID, appointment.DoctorID, serial)
	return converter.AppointmentToResponse(appointment), nil
}
