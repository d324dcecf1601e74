package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type paymentRepository struct {
	db queryer
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, appointment_id, patient_id, amount, method, status,
			paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	payment.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.AppointmentID, payment.PatientID, payment.Amount,
		payment.Method, payment.Status, payment.PaidAt,
		payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Payment, error) {
	query := `
		SELECT id, appointment_id, patient_id, amount, method, status,
			   paid_at, created_at, updated_at
		FROM payments
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`
	payments := []*model.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) SumForDoctor(ctx context.Context, doctorID uuid.UUID, from, to model.Date) (float64, error) {
	query := `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN appointments a ON a.id = p.appointment_id
		WHERE a.doctor_id = $1
		AND a.appointment_date BETWEEN $2 AND $3
	`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, doctorID, from, to); err != nil {
		return 0, fmt.Errorf("failed to sum doctor payments: %w", err)
	}
	return total, nil
}
