package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient represents a registered patient
type Patient struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName        string    `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName         string    `gorm:"type:varchar(50);not null" json:"last_name"`
	DateOfBirth      time.Time `gorm:"type:date;not null" json:"date_of_birth"`
	Gender           string    `gorm:"type:varchar(10);not null" json:"gender"`
	ContactNumber    string    `gorm:"type:varchar(15);not null" json:"contact_number"`
	Email            string    `gorm:"type:varchar(120);uniqueIndex" json:"email,omitempty"`
	Address          string    `gorm:"type:text" json:"address,omitempty"`
	BloodGroup       string    `gorm:"type:varchar(5)" json:"blood_group,omitempty"`
	EmergencyContact string    `gorm:"type:varchar(15)" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"appointments,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FullName returns the display name used in projections and notifications
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
