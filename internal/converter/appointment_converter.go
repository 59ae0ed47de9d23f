package converter

import (
	"github.com/isushmeeta/AI-HMS/internal/delivery/dto"
	"github.com/isushmeeta/AI-HMS/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to its DTO.
// Patient and doctor names are projected at read time; a missing
// relation renders as "Unknown" rather than failing the response.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	patientName := "Unknown"
	if appointment.Patient.ID != uuid.Nil {
		patientName = appointment.Patient.FullName()
	}

	doctorName := "Unknown"
	if appointment.Doctor.ID != uuid.Nil {
		doctorName = appointment.Doctor.Name
	}

	return &dto.AppointmentResponse{
		ID:           appointment.ID,
		PatientID:    appointment.PatientID,
		PatientName:  patientName,
		DoctorID:     appointment.DoctorID,
		DoctorName:   doctorName,
		Date:         appointment.Date.Format("2006-01-02"),
		Time:         appointment.Time,
		Status:       string(appointment.Status),
		Reason:       appointment.Reason,
		SerialNumber: appointment.SerialNumber,
		CreatedAt:    appointment.CreatedAt,
	}
}

// AppointmentsToResponses converts a slice of Appointment entities to DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
