package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const doctorSelect = `
	SELECT d.id, d.clinic_id, d.user_id, d.name, u.name AS user_name,
		   d.specialization, d.bio, d.payment_percentage,
		   d.created_at, d.updated_at
	FROM doctors d
	LEFT JOIN users u ON u.id = d.user_id`

type doctorRepository struct {
	db queryer
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, clinic_id, user_id, name, specialization, bio,
			payment_percentage, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	doctor.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID, doctor.ClinicID, doctor.UserID, doctor.Name,
		doctor.Specialization, doctor.Bio, doctor.PaymentPercentage,
		doctor.CreatedAt, doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, doctorSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, notFound("doctor", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context, clinicID *uuid.UUID) ([]*model.Doctor, error) {
	query := doctorSelect
	args := []interface{}{}
	if clinicID != nil {
		query += ` WHERE d.clinic_id = $1`
		args = append(args, *clinicID)
	}
	query += ` ORDER BY d.name ASC`

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, windows []*model.DoctorAvailability) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM doctor_availability WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("failed to clear availability: %w", err)
	}

	query := `
		INSERT INTO doctor_availability (id, doctor_id, weekday, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, w := range windows {
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
		w.DoctorID = doctorID
		if _, err := r.db.ExecContext(ctx, query, w.ID, w.DoctorID, w.Weekday, w.StartsAt, w.EndsAt); err != nil {
			return fmt.Errorf("failed to insert availability: %w", err)
		}
	}
	return nil
}

func (r *doctorRepository) ListAvailability(ctx context.Context, doctorID uuid.UUID, weekday *int) ([]*model.DoctorAvailability, error) {
	query := `
		SELECT id, doctor_id, weekday, starts_at, ends_at
		FROM doctor_availability
		WHERE doctor_id = $1
	`
	args := []interface{}{doctorID}
	if weekday != nil {
		query += ` AND weekday = $2`
		args = append(args, *weekday)
	}
	query += ` ORDER BY weekday ASC, starts_at ASC`

	windows := []*model.DoctorAvailability{}
	if err := r.db.SelectContext(ctx, &windows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return windows, nil
}
