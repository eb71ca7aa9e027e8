package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ubuzima-connect/api/internal/model"
	"github.com/ubuzima-connect/api/internal/repository"
	apperrors "github.com/ubuzima-connect/api/pkg/errors"
)

// Dates of birth arrive as date-only strings.
const dobLayout = "2006-01-02"

type Service struct {
	repo         repository.PatientRepository
	appointments repository.AppointmentRepository
}

func NewService(repo repository.PatientRepository, appointments repository.AppointmentRepository) *Service {
	return &Service{repo: repo, appointments: appointments}
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest, createdBy uuid.UUID) (*model.Patient, error) {
	dob, err := time.Parse(dobLayout, req.DateOfBirth)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date of birth", err)
	}
	if !dob.Before(time.Now()) {
		return nil, apperrors.BadRequest("Date of birth must be in the past", nil)
	}

	patient := &model.Patient{
		Base: model.Base{
			ID: uuid.New(),
		},
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      dob,
		Gender:           req.Gender,
		PhoneNumber:      req.PhoneNumber,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
		CreatedBy:        createdBy,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", nil)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	appointments, err := s.appointments.List(ctx, &model.AppointmentFilter{PatientID: &patient.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load patient appointments: %w", err)
	}
	patient.Appointments = appointments

	return patient, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", nil)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(dobLayout, *req.DateOfBirth)
		if err != nil {
			return nil, apperrors.BadRequest("invalid date of birth", err)
		}
		if !dob.Before(time.Now()) {
			return nil, apperrors.BadRequest("Date of birth must be in the past", nil)
		}
		patient.DateOfBirth = dob
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.PhoneNumber != nil {
		patient.PhoneNumber = req.PhoneNumber
	}
	if req.Address != nil {
		patient.Address = req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = req.EmergencyContact
	}
	if req.EmergencyPhone != nil {
		patient.EmergencyPhone = req.EmergencyPhone
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", nil)
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", nil)
		}
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}
