package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the closed set of appointment states. There is no
// enforced transition graph: any authorized caller may set any status.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusActive    AppointmentStatus = "ACTIVE"
	AppointmentStatusInactive  AppointmentStatus = "INACTIVE"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusActive, AppointmentStatusInactive,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment links a patient with a GP and optionally a specialist.
type Appointment struct {
	Base
	PatientID    uuid.UUID         `json:"patientId" db:"patient_id"`
	GPID         uuid.UUID         `json:"gpId" db:"gp_id"`
	SpecialistID *uuid.UUID        `json:"specialistId,omitempty" db:"specialist_id"`
	Date         time.Time         `json:"date" db:"date"`
	Reason       string            `json:"reason" db:"reason"`
	Notes        *string           `json:"notes,omitempty" db:"notes"`
	Status       AppointmentStatus `json:"status" db:"status"`

	// Expanded references, attached on reads.
	Patient    *Patient `json:"patient,omitempty" db:"-"`
	GP         *User    `json:"gp,omitempty" db:"-"`
	Specialist *User    `json:"specialist,omitempty" db:"-"`
}

// CreateAppointmentRequest represents appointment creation parameters.
// A caller-supplied status is ignored: new appointments are always PENDING.
type CreateAppointmentRequest struct {
	PatientID    uuid.UUID  `json:"patientId" binding:"required"`
	GPID         uuid.UUID  `json:"gpId" binding:"required"`
	SpecialistID *uuid.UUID `json:"specialistId"`
	Date         time.Time  `json:"date" binding:"required"`
	Reason       string     `json:"reason" binding:"required"`
	Notes        *string    `json:"notes"`
}

// UpdateAppointmentRequest represents the appointment patch surface.
type UpdateAppointmentRequest struct {
	PatientID    *uuid.UUID         `json:"patientId"`
	GPID         *uuid.UUID         `json:"gpId"`
	SpecialistID *uuid.UUID         `json:"specialistId"`
	Date         *time.Time         `json:"date"`
	Reason       *string            `json:"reason"`
	Notes        *string            `json:"notes"`
	Status       *AppointmentStatus `json:"status" binding:"omitempty,oneof=PENDING ACTIVE INACTIVE COMPLETED CANCELLED"`
}

// AppointmentFilter scopes appointment listings.
type AppointmentFilter struct {
	PatientID    *uuid.UUID
	GPID         *uuid.UUID
	SpecialistID *uuid.UUID
}
