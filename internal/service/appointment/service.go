package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ubuzima-connect/api/internal/model"
	"github.com/ubuzima-connect/api/internal/repository"
	"github.com/ubuzima-connect/api/internal/service/notification"
	apperrors "github.com/ubuzima-connect/api/pkg/errors"
	"github.com/ubuzima-connect/api/pkg/logger"
)

// Service implements the appointment lifecycle: creation with cross-entity
// validation, role-scoped visibility, updates with re-validation of changed
// references, and best-effort SMS fan-out.
type Service struct {
	repo     repository.AppointmentRepository
	users    repository.UserRepository
	patients repository.PatientRepository
	notifSvc notification.Service
	log      *logger.Logger
}

func NewService(repo repository.AppointmentRepository, users repository.UserRepository,
	patients repository.PatientRepository, notifSvc notification.Service, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		patients: patients,
		notifSvc: notifSvc,
		log:      log,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest, callerID uuid.UUID) (*model.Appointment, error) {
	// Creating on another GP's behalf requires ADMIN. The role is re-read
	// from storage rather than trusted from the token claim.
	if req.GPID != callerID {
		if err := s.requireAdmin(ctx, callerID, "You do not have permission to create an appointment for another user"); err != nil {
			return nil, err
		}
	}

	if _, err := s.validateDoctor(ctx, req.GPID, model.RoleGP); err != nil {
		return nil, err
	}
	if req.SpecialistID != nil {
		if _, err := s.validateDoctor(ctx, *req.SpecialistID, model.RoleSpecialist); err != nil {
			return nil, err
		}
	}
	if err := s.validatePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		Base: model.Base{
			ID: uuid.New(),
		},
		PatientID:    req.PatientID,
		GPID:         req.GPID,
		SpecialistID: req.SpecialistID,
		Date:         req.Date,
		Reason:       req.Reason,
		Notes:        req.Notes,
		Status:       model.AppointmentStatusPending,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	created, err := s.repo.Get(ctx, appointment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload appointment: %w", err)
	}

	s.notifyCreated(ctx, created, callerID)

	return created, nil
}

func (s *Service) List(ctx context.Context, callerID uuid.UUID, callerRole model.Role) ([]*model.Appointment, error) {
	filter := &model.AppointmentFilter{}
	switch callerRole {
	case model.RoleGP:
		filter.GPID = &callerID
	case model.RoleSpecialist:
		filter.SpecialistID = &callerID
	case model.RoleAdmin:
		// admins see everything
	default:
		return nil, apperrors.Forbidden("", fmt.Errorf("unknown role: %s", callerRole))
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) Get(ctx context.Context, id, callerID uuid.UUID, callerRole model.Role) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", nil)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if callerRole != model.RoleAdmin &&
		appointment.GPID != callerID &&
		(appointment.SpecialistID == nil || *appointment.SpecialistID != callerID) {
		return nil, apperrors.Forbidden("You do not have access to this appointment", nil)
	}

	return appointment, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest, callerID uuid.UUID, callerRole model.Role) (*model.Appointment, error) {
	appointment, err := s.Get(ctx, id, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	// GP reassignment is admin-only, verified against storage.
	if req.GPID != nil && *req.GPID != appointment.GPID {
		if err := s.requireAdmin(ctx, callerID, "Only administrators can reassign an appointment to another GP"); err != nil {
			return nil, err
		}
		if _, err := s.validateDoctor(ctx, *req.GPID, model.RoleGP); err != nil {
			return nil, err
		}
		appointment.GPID = *req.GPID
	}

	if req.SpecialistID != nil &&
		(appointment.SpecialistID == nil || *req.SpecialistID != *appointment.SpecialistID) {
		if _, err := s.validateDoctor(ctx, *req.SpecialistID, model.RoleSpecialist); err != nil {
			return nil, err
		}
		appointment.SpecialistID = req.SpecialistID
	}

	if req.PatientID != nil && *req.PatientID != appointment.PatientID {
		if err := s.validatePatient(ctx, *req.PatientID); err != nil {
			return nil, err
		}
		appointment.PatientID = *req.PatientID
	}

	dateChanged := false
	if req.Date != nil && !req.Date.Equal(appointment.Date) {
		appointment.Date = *req.Date
		dateChanged = true
	}
	if req.Reason != nil {
		appointment.Reason = *req.Reason
	}
	if req.Notes != nil {
		appointment.Notes = req.Notes
	}
	if req.Status != nil {
		appointment.Status = *req.Status
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", nil)
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	updated, err := s.repo.Get(ctx, appointment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload appointment: %w", err)
	}

	if dateChanged {
		s.notifyRescheduled(ctx, updated, callerID, callerRole)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, callerID uuid.UUID, callerRole model.Role) error {
	if _, err := s.Get(ctx, id, callerID, callerRole); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("appointment", nil)
		}
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, callerID uuid.UUID, message string) error {
	caller, err := s.users.Get(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Unauthorized("User not found", nil)
		}
		return fmt.Errorf("failed to look up caller: %w", err)
	}
	if caller.Role != model.RoleAdmin {
		return apperrors.Forbidden(message, nil)
	}
	return nil
}

// validateDoctor checks that id resolves to a user holding the expected role.
func (s *Service) validateDoctor(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("User with ID %s", id), nil)
		}
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}

	if user.Role != role {
		name, err := role.DisplayName()
		if err != nil {
			return nil, fmt.Errorf("invalid doctor role: %w", err)
		}
		return nil, apperrors.BadRequest(fmt.Sprintf("User %s is not a %s", id, name), nil)
	}
	return user, nil
}

func (s *Service) validatePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.patients.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(fmt.Sprintf("Patient with ID %s", id), nil)
		}
		return fmt.Errorf("failed to look up patient: %w", err)
	}
	return nil
}

// notifyCreated sends the creation SMS fan-out. Delivery failures are logged
// and never affect the outcome of the mutation.
func (s *Service) notifyCreated(ctx context.Context, apt *model.Appointment, callerID uuid.UUID) {
	if apt.Patient == nil || apt.GP == nil {
		return
	}
	doctorName := apt.GP.FullName()
	patientName := apt.Patient.FullName()

	if apt.Patient.PhoneNumber != nil {
		if err := s.notifSvc.SendNewAppointmentNotification(ctx, *apt.Patient.PhoneNumber,
			apt.Patient.FirstName, patientName, doctorName, apt.Date, notification.RecipientPatient); err != nil {
			s.log.Error(err, "failed to notify patient", "appointment_id", apt.ID.String())
		}
	}

	if apt.Specialist != nil && apt.Specialist.PhoneNumber != nil {
		if err := s.notifSvc.SendNewAppointmentNotification(ctx, *apt.Specialist.PhoneNumber,
			apt.Specialist.FullName(), patientName, doctorName, apt.Date, notification.RecipientSpecialist); err != nil {
			s.log.Error(err, "failed to notify specialist", "appointment_id", apt.ID.String())
		}
	}

	// The GP is only notified when someone else (an admin) booked for them.
	if callerID != apt.GPID && apt.GP.PhoneNumber != nil {
		if err := s.notifSvc.SendNewAppointmentNotification(ctx, *apt.GP.PhoneNumber,
			doctorName, patientName, doctorName, apt.Date, notification.RecipientGP); err != nil {
			s.log.Error(err, "failed to notify GP", "appointment_id", apt.ID.String())
		}
	}
}

func (s *Service) notifyRescheduled(ctx context.Context, apt *model.Appointment, callerID uuid.UUID, callerRole model.Role) {
	if apt.Patient == nil || apt.GP == nil {
		return
	}
	doctorName := apt.GP.FullName()
	patientName := apt.Patient.FullName()

	if apt.Patient.PhoneNumber != nil {
		if err := s.notifSvc.SendAppointmentUpdateNotification(ctx, *apt.Patient.PhoneNumber,
			apt.Patient.FirstName, patientName, doctorName, apt.Date, notification.RecipientPatient); err != nil {
			s.log.Error(err, "failed to notify patient", "appointment_id", apt.ID.String())
		}
	}

	if apt.Specialist != nil && apt.Specialist.PhoneNumber != nil {
		if err := s.notifSvc.SendAppointmentUpdateNotification(ctx, *apt.Specialist.PhoneNumber,
			apt.Specialist.FullName(), patientName, doctorName, apt.Date, notification.RecipientSpecialist); err != nil {
			s.log.Error(err, "failed to notify specialist", "appointment_id", apt.ID.String())
		}
	}

	if callerRole == model.RoleAdmin && apt.GP.PhoneNumber != nil {
		if err := s.notifSvc.SendAppointmentUpdateNotification(ctx, *apt.GP.PhoneNumber,
			doctorName, patientName, doctorName, apt.Date, notification.RecipientGP); err != nil {
			s.log.Error(err, "failed to notify GP", "appointment_id", apt.ID.String())
		}
	}
}
