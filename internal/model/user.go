package model

import (
	"fmt"
)

// Role is the closed set of professional roles a user can hold.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleGP         Role = "GP"
	RoleSpecialist Role = "SPECIALIST"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGP, RoleSpecialist:
		return true
	}
	return false
}

// DisplayName returns the human-readable name used in error messages.
func (r Role) DisplayName() (string, error) {
	switch r {
	case RoleAdmin:
		return "Administrator", nil
	case RoleGP:
		return "General Practitioner", nil
	case RoleSpecialist:
		return "Specialist", nil
	default:
		return "", fmt.Errorf("unknown role: %s", r)
	}
}

// User represents a healthcare professional or administrator.
type User struct {
	Base
	Email               string  `json:"email" db:"email"`
	PasswordHash        string  `json:"-" db:"password_hash"`
	FirstName           string  `json:"firstName" db:"first_name"`
	LastName            string  `json:"lastName" db:"last_name"`
	Role                Role    `json:"role" db:"role"`
	Specialization      *string `json:"specialization,omitempty" db:"specialization"`
	LicenseNumber       string  `json:"licenseNumber" db:"license_number"`
	PhoneNumber         *string `json:"phoneNumber,omitempty" db:"phone_number"`
	HospitalAffiliation *string `json:"hospitalAffiliation,omitempty" db:"hospital_affiliation"`
}

// FullName is the doctor name used in notification texts.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// RegisterRequest represents user registration parameters
type RegisterRequest struct {
	Email               string  `json:"email" binding:"required,email"`
	Password            string  `json:"password" binding:"required,min=8,max=50"`
	FirstName           string  `json:"firstName" binding:"required,min=1,max=50"`
	LastName            string  `json:"lastName" binding:"required,min=1,max=50"`
	Role                Role    `json:"role" binding:"required,oneof=ADMIN GP SPECIALIST"`
	Specialization      *string `json:"specialization"`
	LicenseNumber       string  `json:"licenseNumber" binding:"required,min=1,max=20"`
	PhoneNumber         *string `json:"phoneNumber"`
	HospitalAffiliation *string `json:"hospitalAffiliation"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest represents the admin user patch surface
type UpdateUserRequest struct {
	Email               *string `json:"email" binding:"omitempty,email"`
	Password            *string `json:"password" binding:"omitempty,min=8,max=50"`
	FirstName           *string `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName            *string `json:"lastName" binding:"omitempty,min=1,max=50"`
	Role                *Role   `json:"role" binding:"omitempty,oneof=ADMIN GP SPECIALIST"`
	Specialization      *string `json:"specialization"`
	LicenseNumber       *string `json:"licenseNumber" binding:"omitempty,min=1,max=20"`
	PhoneNumber         *string `json:"phoneNumber"`
	HospitalAffiliation *string `json:"hospitalAffiliation"`
}
