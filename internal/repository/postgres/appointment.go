package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ubuzima-connect/api/internal/model"
	"github.com/ubuzima-connect/api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, gp_id, specialist_id, date, reason, notes, status,
	created_at, updated_at
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, gp_id, specialist_id, date, reason, notes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.GPID,
		appointment.SpecialistID,
		appointment.Date,
		appointment.Reason,
		appointment.Notes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if err := r.expand(ctx, []*model.Appointment{&appointment}); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filter != nil {
		if filter.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, *filter.PatientID)
			argCount++
		}
		if filter.GPID != nil {
			query += fmt.Sprintf(" AND gp_id = $%d", argCount)
			args = append(args, *filter.GPID)
			argCount++
		}
		if filter.SpecialistID != nil {
			query += fmt.Sprintf(" AND specialist_id = $%d", argCount)
			args = append(args, *filter.SpecialistID)
			argCount++
		}
	}

	query += " ORDER BY date ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	if err := r.expand(ctx, appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET patient_id = $1, gp_id = $2, specialist_id = $3, date = $4,
			reason = $5, notes = $6, status = $7, updated_at = $8
		WHERE id = $9
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.PatientID,
		appointment.GPID,
		appointment.SpecialistID,
		appointment.Date,
		appointment.Reason,
		appointment.Notes,
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// expand attaches the referenced patient, gp and specialist to each
// appointment with two batched lookups.
func (r *appointmentRepository) expand(ctx context.Context, appointments []*model.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	patientIDs := make([]uuid.UUID, 0, len(appointments))
	userIDs := make([]uuid.UUID, 0, len(appointments)*2)
	seenPatients := map[uuid.UUID]bool{}
	seenUsers := map[uuid.UUID]bool{}

	for _, apt := range appointments {
		if !seenPatients[apt.PatientID] {
			seenPatients[apt.PatientID] = true
			patientIDs = append(patientIDs, apt.PatientID)
		}
		if !seenUsers[apt.GPID] {
			seenUsers[apt.GPID] = true
			userIDs = append(userIDs, apt.GPID)
		}
		if apt.SpecialistID != nil && !seenUsers[*apt.SpecialistID] {
			seenUsers[*apt.SpecialistID] = true
			userIDs = append(userIDs, *apt.SpecialistID)
		}
	}

	patients := map[uuid.UUID]*model.Patient{}
	query, args, err := sqlx.In(`SELECT `+patientColumns+` FROM patients WHERE id IN (?)`, patientIDs)
	if err != nil {
		return fmt.Errorf("failed to build patient lookup: %w", err)
	}
	var patientRows []*model.Patient
	if err := r.db.SelectContext(ctx, &patientRows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load appointment patients: %w", err)
	}
	for _, p := range patientRows {
		patients[p.ID] = p
	}

	users := map[uuid.UUID]*model.User{}
	query, args, err = sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, userIDs)
	if err != nil {
		return fmt.Errorf("failed to build user lookup: %w", err)
	}
	var userRows []*model.User
	if err := r.db.SelectContext(ctx, &userRows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load appointment users: %w", err)
	}
	for _, u := range userRows {
		users[u.ID] = u
	}

	for _, apt := range appointments {
		apt.Patient = patients[apt.PatientID]
		apt.GP = users[apt.GPID]
		if apt.SpecialistID != nil {
			apt.Specialist = users[*apt.SpecialistID]
		}
	}
	return nil
}
