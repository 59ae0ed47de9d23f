package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusRequested AppointmentStatus = "Requested"
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// statusTransitions is the authoritative transition table.
// Completed and Cancelled are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusRequested: {AppointmentStatusScheduled, AppointmentStatusCancelled},
	AppointmentStatusScheduled: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

// ValidStatus reports whether s is a known appointment status
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentStatusRequested, AppointmentStatusScheduled,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment represents a patient visit request for a doctor slot.
// SerialNumber is the per-doctor-per-day queue position, assigned once
// the appointment is confirmed.
type Appointment struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Date         time.Time         `gorm:"type:date;not null;index" json:"date"`
	Time         string            `gorm:"type:time;not null" json:"time"`
	Status       AppointmentStatus `gorm:"type:varchar(20);not null;default:'Requested';index" json:"status"`
	Reason       string            `gorm:"type:varchar(255)" json:"reason,omitempty"`
	SerialNumber *int              `json:"serial_number,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CanTransitionTo reports whether moving to the given status is a legal
// edge of the lifecycle state machine.
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[a.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsRequested checks if the appointment is awaiting confirmation
func (a *Appointment) IsRequested() bool {
	return a.Status == AppointmentStatusRequested
}

// IsScheduled checks if the appointment is confirmed
func (a *Appointment) IsScheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// IsTerminal checks if the appointment reached a final status
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentStatusCompleted || a.Status == AppointmentStatusCancelled
}
