package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Doctor represents a clinician patients can book against
type Doctor struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	Specialization string    `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Contact        string    `gorm:"type:varchar(20)" json:"contact,omitempty"`
	Availability   string    `gorm:"type:varchar(200)" json:"availability,omitempty"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"appointments,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
