package repository

import (
	"time"

	"github.com/isushmeeta/AI-HMS/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentFilter narrows appointment listings. Zero values mean no filter.
type AppointmentFilter struct {
	Date     *time.Time
	DoctorID *uuid.UUID
}

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindAll(db *gorm.DB, filter AppointmentFilter) ([]entity.Appointment, error)
	// SlotTaken reports whether a Scheduled appointment already occupies
	// the exact (doctor, date, time) slot.
	SlotTaken(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeOfDay string) (bool, error)
	// CountScheduled counts Scheduled appointments for a doctor on a day,
	// the basis for serial-number assignment.
	CountScheduled(db *gorm.DB, doctorID uuid.UUID, date time.Time) (int64, error)
	Update(db *gorm.DB, appointment *entity.Appointment) error
}
