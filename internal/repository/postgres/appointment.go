package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// activeSlotIndex is the partial unique index that keeps one non-cancelled
// appointment per (doctor, date, time).
const activeSlotIndex = "appointments_active_slot_key"

const appointmentColumns = `
	id, patient_id, doctor_id, service_id, clinic_id,
	appointment_date, appointment_time, status,
	cost, discount, final_amount, notes, cancel_reason,
	created_at, updated_at`

type appointmentRepository struct {
	db queryer
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, service_id, clinic_id,
			appointment_date, appointment_time, status,
			cost, discount, final_amount, notes, cancel_reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	appointment.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.ServiceID,
		appointment.ClinicID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Cost,
		appointment.Discount,
		appointment.FinalAmount,
		appointment.Notes,
		appointment.CancelReason,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, activeSlotIndex) {
			return apperrors.NewConflict("doctor already has an appointment in this slot")
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, notFound("appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, notFound("appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appointment_date = $1, appointment_time = $2, status = $3,
			cost = $4, discount = $5, final_amount = $6,
			notes = $7, cancel_reason = $8, updated_at = $9
		WHERE id = $10
	`
	appointment.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Cost,
		appointment.Discount,
		appointment.FinalAmount,
		appointment.Notes,
		appointment.CancelReason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		if isUniqueViolation(err, activeSlotIndex) {
			return apperrors.NewConflict("doctor already has an appointment in this slot")
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return rowsAffected(result, "appointment")
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return rowsAffected(result, "appointment")
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1 = 1`
	args := []interface{}{}
	argCount := 1

	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	if filters.ClinicID != nil {
		query += fmt.Sprintf(" AND clinic_id = $%d", argCount)
		args = append(args, *filters.ClinicID)
		argCount++
	}

	if filters.DoctorID != nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, *filters.DoctorID)
		argCount++
	}

	if filters.PatientID != nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, *filters.PatientID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if filters.From != nil {
		query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
		args = append(args, *filters.From)
		argCount++
	}

	if filters.To != nil {
		query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
		args = append(args, *filters.To)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY appointment_date ASC, appointment_time ASC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit(), filters.Offset())

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) HasConflict(ctx context.Context, slot model.Slot, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND appointment_date = $2
			AND appointment_time = $3
			AND status <> 'cancelled'
	`
	args := []interface{}{slot.DoctorID, slot.Date, slot.Time}

	if excludeID != nil {
		query += " AND id <> $4"
		args = append(args, *excludeID)
	}

	query += ")"

	var hasConflict bool
	if err := r.db.GetContext(ctx, &hasConflict, query, args...); err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return hasConflict, nil
}

func (r *appointmentRepository) LockSlot(ctx context.Context, slot model.Slot) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, slot.Key()); err != nil {
		return fmt.Errorf("failed to lock slot: %w", err)
	}
	return nil
}

func (r *appointmentRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.ClockTime, error) {
	query := `
		SELECT appointment_time
		FROM appointments
		WHERE doctor_id = $1
		AND appointment_date = $2
		AND status <> 'cancelled'
		ORDER BY appointment_time ASC
	`
	times := []model.ClockTime{}
	if err := r.db.SelectContext(ctx, &times, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}
	return times, nil
}
