package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/money"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Service struct {
	store     repository.Store
	validator validator.Validator
	metrics   *metrics.Metrics
}

func NewService(store repository.Store, v validator.Validator, m *metrics.Metrics) *Service {
	return &Service{
		store:     store,
		validator: v,
		metrics:   m,
	}
}

// RecordPayment stores a payment against an appointment. The patient is
// taken from the appointment.
func (s *Service) RecordPayment(ctx context.Context, appointmentID uuid.UUID, req *model.RecordPaymentRequest) (*model.Payment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	status := model.PaymentStatus(req.Status)
	if status == "" {
		status = model.PaymentStatusPaid
	}

	var payment *model.Payment
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		apt, err := tx.Appointments().GetForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if apt.Status == model.AppointmentStatusCancelled {
			return apperrors.NewInvalidState("cannot take payment for a cancelled appointment")
		}

		payment = &model.Payment{
			AppointmentID: apt.ID,
			PatientID:     apt.PatientID,
			Amount:        money.Round2(req.Amount),
			Method:        req.Method,
			Status:        status,
		}
		if status == model.PaymentStatusPaid {
			now := time.Now().UTC()
			payment.PaidAt = &now
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		return event.Emit(ctx, tx.Outbox(), model.EventPaymentRecorded, event.PaymentPayload{
			PaymentID:     payment.ID,
			AppointmentID: apt.ID,
			Amount:        payment.Amount,
			Method:        payment.Method,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentRecorded()
	return payment, nil
}

func (s *Service) ListPayments(ctx context.Context, appointmentID uuid.UUID) ([]*model.Payment, error) {
	if _, err := s.store.Appointments().Get(ctx, appointmentID); err != nil {
		return nil, err
	}
	return s.store.Payments().ListByAppointment(ctx, appointmentID)
}
