package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient represents a patient record.
type Patient struct {
	Base
	FirstName        string    `json:"firstName" db:"first_name"`
	LastName         string    `json:"lastName" db:"last_name"`
	DateOfBirth      time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Gender           string    `json:"gender" db:"gender"`
	PhoneNumber      *string   `json:"phoneNumber,omitempty" db:"phone_number"`
	Address          *string   `json:"address,omitempty" db:"address"`
	EmergencyContact *string   `json:"emergencyContact,omitempty" db:"emergency_contact"`
	EmergencyPhone   *string   `json:"emergencyPhone,omitempty" db:"emergency_phone"`
	CreatedBy        uuid.UUID `json:"createdBy" db:"created_by"`

	// Appointments are attached on reads, not stored on the row.
	Appointments []*Appointment `json:"appointments,omitempty" db:"-"`
}

// FullName is the patient name used in notification texts.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// CreatePatientRequest represents patient creation parameters.
// dateOfBirth is a date-only string and must lie in the past.
type CreatePatientRequest struct {
	FirstName        string  `json:"firstName" binding:"required"`
	LastName         string  `json:"lastName" binding:"required"`
	DateOfBirth      string  `json:"dateOfBirth" binding:"required,pastdate"`
	Gender           string  `json:"gender" binding:"required"`
	PhoneNumber      *string `json:"phoneNumber"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergencyContact"`
	EmergencyPhone   *string `json:"emergencyPhone"`
}

// UpdatePatientRequest represents the patient patch surface.
type UpdatePatientRequest struct {
	FirstName        *string `json:"firstName"`
	LastName         *string `json:"lastName"`
	DateOfBirth      *string `json:"dateOfBirth" binding:"omitempty,pastdate"`
	Gender           *string `json:"gender"`
	PhoneNumber      *string `json:"phoneNumber"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergencyContact"`
	EmergencyPhone   *string `json:"emergencyPhone"`
}
