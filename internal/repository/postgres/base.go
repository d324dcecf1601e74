package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Store provides repositories over a database handle or an open transaction.
type Store struct {
	db *sqlx.DB
	q  queryer
	tx *sqlx.Tx
}

// NewStore creates a Store backed by db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

// GetDB returns the database instance
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{db: s.q}
}

func (s *Store) Clinics() repository.ClinicRepository {
	return &clinicRepository{db: s.q}
}

func (s *Store) Doctors() repository.DoctorRepository {
	return &doctorRepository{db: s.q}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{db: s.q}
}

func (s *Store) Payments() repository.PaymentRepository {
	return &paymentRepository{db: s.q}
}

func (s *Store) Bonuses() repository.BonusRepository {
	return &bonusRepository{db: s.q}
}

func (s *Store) MedicalRecords() repository.MedicalRecordRepository {
	return &medicalRecordRepository{db: s.q}
}

func (s *Store) Invoices() repository.InvoiceRepository {
	return &invoiceRepository{db: s.q}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{db: s.q}
}

func (s *Store) Settings() repository.SettingsRepository {
	return &settingsRepository{db: s.q}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepository{db: s.q}
}

// WithinTx executes a function within a transaction
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows onto the application not-found error.
func notFound(resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to get %s: %w", resource, err)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

func rowsAffected(res sql.Result, resource string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound(resource, nil)
	}
	return nil
}
