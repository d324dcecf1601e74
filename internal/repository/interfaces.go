package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// GetForUpdate row-locks the appointment for the rest of the transaction.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// HasConflict reports whether a non-cancelled appointment other than
		// excludeID holds the slot.
		HasConflict(ctx context.Context, slot model.Slot, excludeID *uuid.UUID) (bool, error)
		// LockSlot serialises bookings of the same slot until the
		// surrounding transaction ends.
		LockSlot(ctx context.Context, slot model.Slot) error
		BookedTimes(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.ClockTime, error)
	}

	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
		List(ctx context.Context) ([]*model.Clinic, error)
		CreateService(ctx context.Context, service *model.Service) error
		GetService(ctx context.Context, serviceID uuid.UUID) (*model.Service, error)
		ListServices(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context, clinicID *uuid.UUID) ([]*model.Doctor, error)
		ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, windows []*model.DoctorAvailability) error
		ListAvailability(ctx context.Context, doctorID uuid.UUID, weekday *int) ([]*model.DoctorAvailability, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Payment, error)
		// SumForDoctor totals payments whose appointment belongs to the
		// doctor and falls on a date in [from, to].
		SumForDoctor(ctx context.Context, doctorID uuid.UUID, from, to model.Date) (float64, error)
	}

	BonusRepository interface {
		Create(ctx context.Context, bonus *model.DoctorBonus) error
		// ListForDoctor and SumForDoctor use the half-open window [from, to).
		ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.DoctorBonus, error)
		SumForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (float64, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}

	InvoiceRepository interface {
		Create(ctx context.Context, invoice *model.Invoice) error
		CreateItem(ctx context.Context, item *model.InvoiceItem) error
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Invoice, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	SettingsRepository interface {
		Get(ctx context.Context) (*model.Settings, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEventsWithLock claims due events with FOR UPDATE SKIP
		// LOCKED; it must run inside a transaction.
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Store hands out repositories bound to one connection or transaction.
	Store interface {
		Appointments() AppointmentRepository
		Clinics() ClinicRepository
		Doctors() DoctorRepository
		Patients() PatientRepository
		Payments() PaymentRepository
		Bonuses() BonusRepository
		MedicalRecords() MedicalRecordRepository
		Invoices() InvoiceRepository
		Users() UserRepository
		Settings() SettingsRepository
		Outbox() OutboxRepository

		// WithinTx runs fn against a transactional Store. The transaction
		// commits when fn returns nil and rolls back otherwise. Calling
		// WithinTx on a transactional Store reuses the open transaction.
		WithinTx(ctx context.Context, fn func(Store) error) error
	}
)
