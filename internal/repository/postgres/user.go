package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const usersEmailKey = "users_email_key"

// userRow is the flattened storage form of model.User.
type userRow struct {
	model.User
	RoleKind model.RoleKind `db:"role"`
	DoctorID *uuid.UUID     `db:"doctor_id"`
	ClinicID *uuid.UUID     `db:"clinic_id"`
}

func (row *userRow) toModel() (*model.User, error) {
	role, err := model.NewRole(row.RoleKind, row.DoctorID, row.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", row.ID, err)
	}
	user := row.User
	user.Role = role
	return &user, nil
}

type userRepository struct {
	db queryer
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, name, password_hash, status,
			role, doctor_id, clinic_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	user.Touch(time.Now().UTC())
	kind, doctorID, clinicID := model.FlattenRole(user.Role)

	_, err := r.db.ExecContext(ctx, query,
		user.ID, strings.ToLower(user.Email), user.Name, user.PasswordHash, user.Status,
		kind, doctorID, clinicID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return apperrors.NewConflict("email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", strings.ToLower(email))
}

func (r *userRepository) getBy(ctx context.Context, column string, value interface{}) (*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, status,
			   role, doctor_id, clinic_id, created_at, updated_at
		FROM users
		WHERE ` + column + ` = $1
	`
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, value); err != nil {
		return nil, notFound("user", err)
	}
	return row.toModel()
}
