package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type clinicRepository struct {
	db queryer
}

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (
			id, name, address, phone, opens_at, closes_at,
			slot_minutes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	clinic.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		clinic.ID, clinic.Name, clinic.Address, clinic.Phone,
		clinic.OpensAt, clinic.ClosesAt, clinic.SlotMinutes, clinic.Status,
		clinic.CreatedAt, clinic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `
		SELECT id, name, address, phone, opens_at, closes_at,
			   slot_minutes, status, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`
	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, id); err != nil {
		return nil, notFound("clinic", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, address = $2, phone = $3, opens_at = $4, closes_at = $5,
			slot_minutes = $6, status = $7, updated_at = $8
		WHERE id = $9
	`
	clinic.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		clinic.Name, clinic.Address, clinic.Phone, clinic.OpensAt, clinic.ClosesAt,
		clinic.SlotMinutes, clinic.Status, clinic.UpdatedAt, clinic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinic: %w", err)
	}
	return rowsAffected(result, "clinic")
}

func (r *clinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	query := `
		SELECT id, name, address, phone, opens_at, closes_at,
			   slot_minutes, status, created_at, updated_at
		FROM clinics
		ORDER BY name ASC
	`
	clinics := []*model.Clinic{}
	if err := r.db.SelectContext(ctx, &clinics, query); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

func (r *clinicRepository) CreateService(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (
			id, clinic_id, name, description, duration_minutes,
			price, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	service.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		service.ID, service.ClinicID, service.Name, service.Description,
		service.DurationMinutes, service.Price, service.Status,
		service.CreatedAt, service.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *clinicRepository) GetService(ctx context.Context, serviceID uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, clinic_id, name, description, duration_minutes,
			   price, status, created_at, updated_at
		FROM services
		WHERE id = $1
	`
	var service model.Service
	if err := r.db.GetContext(ctx, &service, query, serviceID); err != nil {
		return nil, notFound("service", err)
	}
	return &service, nil
}

func (r *clinicRepository) ListServices(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error) {
	query := `
		SELECT id, clinic_id, name, description, duration_minutes,
			   price, status, created_at, updated_at
		FROM services
		WHERE clinic_id = $1
		ORDER BY name ASC
	`
	services := []*model.Service{}
	if err := r.db.SelectContext(ctx, &services, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}
