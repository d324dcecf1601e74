package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type bonusRepository struct {
	db queryer
}

func (r *bonusRepository) Create(ctx context.Context, bonus *model.DoctorBonus) error {
	query := `
		INSERT INTO doctor_bonuses (id, doctor_id, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if bonus.ID == uuid.Nil {
		bonus.ID = uuid.New()
	}
	if bonus.CreatedAt.IsZero() {
		bonus.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, query, bonus.ID, bonus.DoctorID, bonus.Amount, bonus.Note, bonus.CreatedAt); err != nil {
		return fmt.Errorf("failed to create bonus: %w", err)
	}
	return nil
}

func (r *bonusRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.DoctorBonus, error) {
	query := `
		SELECT id, doctor_id, amount, note, created_at
		FROM doctor_bonuses
		WHERE doctor_id = $1
		AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC
	`
	bonuses := []*model.DoctorBonus{}
	if err := r.db.SelectContext(ctx, &bonuses, query, doctorID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	return bonuses, nil
}

func (r *bonusRepository) SumForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM doctor_bonuses
		WHERE doctor_id = $1
		AND created_at >= $2 AND created_at < $3
	`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, doctorID, from, to); err != nil {
		return 0, fmt.Errorf("failed to sum bonuses: %w", err)
	}
	return total, nil
}
