package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type medicalRecordRepository struct {
	db queryer
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, appointment_id, patient_id, doctor_id,
			diagnosis, prescription, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	record.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.AppointmentID, record.PatientID, record.DoctorID,
		record.Diagnosis, record.Prescription, record.Notes,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id,
			   diagnosis, prescription, notes, created_at, updated_at
		FROM medical_records
		WHERE appointment_id = $1
	`
	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, appointmentID); err != nil {
		return nil, notFound("medical record", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id,
			   diagnosis, prescription, notes, created_at, updated_at
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	records := []*model.MedicalRecord{}
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

type invoiceRepository struct {
	db queryer
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, appointment_id, patient_id, number, total, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	invoice.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		invoice.ID, invoice.AppointmentID, invoice.PatientID, invoice.Number,
		invoice.Total, invoice.Status, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) CreateItem(ctx context.Context, item *model.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Total,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice item: %w", err)
	}
	return nil
}

func (r *invoiceRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Invoice, error) {
	query := `
		SELECT id, appointment_id, patient_id, number, total, status, created_at, updated_at
		FROM invoices
		WHERE appointment_id = $1
	`
	var invoice model.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, appointmentID); err != nil {
		return nil, notFound("invoice", err)
	}

	items := []model.InvoiceItem{}
	itemsQuery := `
		SELECT id, invoice_id, description, quantity, unit_price, total
		FROM invoice_items
		WHERE invoice_id = $1
	`
	if err := r.db.SelectContext(ctx, &items, itemsQuery, invoice.ID); err != nil {
		return nil, fmt.Errorf("failed to get invoice items: %w", err)
	}
	invoice.Items = items
	return &invoice, nil
}
