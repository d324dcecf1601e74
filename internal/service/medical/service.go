package medical

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Service reads the clinical and billing documents produced when an
// appointment is completed. They are never written outside completion.
type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetRecord(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	if _, err := s.store.Appointments().Get(ctx, appointmentID); err != nil {
		return nil, err
	}
	return s.store.MedicalRecords().GetByAppointment(ctx, appointmentID)
}

func (s *Service) GetInvoice(ctx context.Context, appointmentID uuid.UUID) (*model.Invoice, error) {
	if _, err := s.store.Appointments().Get(ctx, appointmentID); err != nil {
		return nil, err
	}
	return s.store.Invoices().GetByAppointment(ctx, appointmentID)
}
