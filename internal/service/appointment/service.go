package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/money"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// DefaultSlotMinutes is used when neither the service nor the clinic
// defines a slot length.
const DefaultSlotMinutes = 30

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

// CheckConflict reports whether a non-cancelled appointment other than
// ExcludeID already holds the doctor's slot.
func (s *Service) CheckConflict(ctx context.Context, q *model.ConflictQuery) (bool, error) {
	if err := s.validator.Validate(q); err != nil {
		return false, err
	}

	slot, err := parseSlot(q.DoctorID, q.Date, q.Time)
	if err != nil {
		return false, err
	}

	var exclude *uuid.UUID
	if q.ExcludeID != "" {
		id, err := parseID("exclude_id", q.ExcludeID)
		if err != nil {
			return false, err
		}
		exclude = &id
	}

	conflict, err := s.store.Appointments().HasConflict(ctx, slot, exclude)
	if err != nil {
		return false, fmt.Errorf("failed to check conflict: %w", err)
	}
	return conflict, nil
}

// Quote prices a cost/discount pair without touching storage.
func (s *Service) Quote(q *model.Quote) (*model.Quote, error) {
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}
	return &model.Quote{
		Cost:        q.Cost,
		Discount:    q.Discount,
		FinalAmount: FinalAmount(q.Cost, q.Discount),
	}, nil
}

func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ids, err := parseIDs(map[string]string{
		"patient_id": req.PatientID,
		"doctor_id":  req.DoctorID,
		"service_id": req.ServiceID,
		"clinic_id":  req.ClinicID,
	})
	if err != nil {
		return nil, err
	}
	slot, err := parseSlot(req.DoctorID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Patients().Get(ctx, ids["patient_id"]); err != nil {
		return nil, err
	}
	if _, err := s.store.Doctors().Get(ctx, ids["doctor_id"]); err != nil {
		return nil, err
	}
	if _, err := s.store.Clinics().Get(ctx, ids["clinic_id"]); err != nil {
		return nil, err
	}
	service, err := s.store.Clinics().GetService(ctx, ids["service_id"])
	if err != nil {
		return nil, err
	}
	if service.ClinicID != ids["clinic_id"] {
		return nil, apperrors.Field("service_id", "service does not belong to the clinic")
	}

	cost := service.Price
	if req.Cost != nil {
		cost = *req.Cost
	}

	apt := &model.Appointment{
		PatientID:   ids["patient_id"],
		DoctorID:    ids["doctor_id"],
		ServiceID:   ids["service_id"],
		ClinicID:    ids["clinic_id"],
		Date:        slot.Date,
		Time:        slot.Time,
		Status:      model.AppointmentStatusScheduled,
		Cost:        money.Round2(cost),
		Discount:    money.Round2(req.Discount),
		FinalAmount: FinalAmount(cost, req.Discount),
		Notes:       strings.TrimSpace(req.Notes),
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := s.claimSlot(ctx, tx, slot, nil); err != nil {
			return err
		}
		if err := tx.Appointments().Create(ctx, apt); err != nil {
			return err
		}
		return event.Emit(ctx, tx.Outbox(), model.EventAppointmentCreated, event.NewAppointmentPayload(apt))
	})
	if err != nil {
		return nil, s.bookingError(err, slot)
	}

	s.metrics.Booked()
	log.Info().
		Str("appointment_id", apt.ID.String()).
		Str("slot", slot.Key()).
		Msg("appointment booked")
	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.store.Appointments().Get(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// RescheduleAppointment moves a scheduled appointment to a new slot. The
// appointment's current slot does not count as a conflict.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var apt *model.Appointment
	var slot model.Slot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		apt, err = tx.Appointments().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if apt.Status != model.AppointmentStatusScheduled {
			return apperrors.NewInvalidState(fmt.Sprintf("cannot reschedule a %s appointment", apt.Status))
		}

		slot, err = parseSlot(apt.DoctorID.String(), req.Date, req.Time)
		if err != nil {
			return err
		}
		if err := s.claimSlot(ctx, tx, slot, &apt.ID); err != nil {
			return err
		}

		apt.Date = slot.Date
		apt.Time = slot.Time
		if err := tx.Appointments().Update(ctx, apt); err != nil {
			return err
		}
		return event.Emit(ctx, tx.Outbox(), model.EventAppointmentRescheduled, event.NewAppointmentPayload(apt))
	})
	if err != nil {
		return nil, s.bookingError(err, slot)
	}
	return apt, nil
}

// UpdatePricing replaces cost and discount and recomputes the final amount.
func (s *Service) UpdatePricing(ctx context.Context, id uuid.UUID, req *model.UpdatePricingRequest) (*model.Appointment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var apt *model.Appointment
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		apt, err = tx.Appointments().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if apt.Status != model.AppointmentStatusScheduled {
			return apperrors.NewInvalidState(fmt.Sprintf("cannot reprice a %s appointment", apt.Status))
		}

		apt.Cost = money.Round2(req.Cost)
		apt.Discount = money.Round2(req.Discount)
		apt.FinalAmount = FinalAmount(req.Cost, req.Discount)
		return tx.Appointments().Update(ctx, apt)
	})
	if err != nil {
		return nil, err
	}
	return apt, nil
}

func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, req *model.CancelAppointmentRequest) (*model.Appointment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)

	return s.transition(ctx, id, model.AppointmentStatusCancelled, model.EventAppointmentCancelled, func(apt *model.Appointment) {
		if reason != "" {
			apt.CancelReason = &reason
		}
	})
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusNoShow, model.EventAppointmentNoShow, nil)
}

// transition applies a side-effect-free status change.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, eventType string, mutate func(*model.Appointment)) (*model.Appointment, error) {
	var apt *model.Appointment
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		apt, err = tx.Appointments().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(apt.Status, to); err != nil {
			return err
		}

		apt.Status = to
		if mutate != nil {
			mutate(apt)
		}
		if err := tx.Appointments().Update(ctx, apt); err != nil {
			return err
		}

		payload := event.NewAppointmentPayload(apt)
		if apt.CancelReason != nil {
			payload.Reason = *apt.CancelReason
		}
		return event.Emit(ctx, tx.Outbox(), eventType, payload)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(to))
	log.Info().
		Str("appointment_id", id.String()).
		Str("status", string(to)).
		Msg("appointment status changed")
	return apt, nil
}

// CompleteAppointment marks a scheduled appointment completed and, in the
// same transaction, writes its medical record and an invoice with one line
// priced at the service price. Nothing persists if any write fails.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID, req *model.CompleteAppointmentRequest) (*model.Completion, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var result model.Completion
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		apt, err := tx.Appointments().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(apt.Status, model.AppointmentStatusCompleted); err != nil {
			return err
		}

		service, err := tx.Clinics().GetService(ctx, apt.ServiceID)
		if err != nil {
			return err
		}

		record := &model.MedicalRecord{
			AppointmentID: apt.ID,
			PatientID:     apt.PatientID,
			DoctorID:      apt.DoctorID,
			Diagnosis:     strings.TrimSpace(req.Diagnosis),
			Prescription:  strings.TrimSpace(req.Prescription),
			Notes:         strings.TrimSpace(req.Notes),
		}
		if err := tx.MedicalRecords().Create(ctx, record); err != nil {
			return err
		}

		price := money.Round2(service.Price)
		invoice := &model.Invoice{
			Base:          model.Base{ID: uuid.New()},
			AppointmentID: apt.ID,
			PatientID:     apt.PatientID,
			Total:         price,
			Status:        model.InvoiceStatusIssued,
		}
		invoice.Number = invoiceNumber(apt.Date, invoice.ID)
		if err := tx.Invoices().Create(ctx, invoice); err != nil {
			return err
		}

		item := model.InvoiceItem{
			InvoiceID:   invoice.ID,
			Description: service.Name,
			Quantity:    1,
			UnitPrice:   price,
			Total:       price,
		}
		if err := tx.Invoices().CreateItem(ctx, &item); err != nil {
			return err
		}
		invoice.Items = []model.InvoiceItem{item}

		apt.Status = model.AppointmentStatusCompleted
		if err := tx.Appointments().Update(ctx, apt); err != nil {
			return err
		}

		payload := event.NewAppointmentPayload(apt)
		payload.InvoiceID = &invoice.ID
		if err := event.Emit(ctx, tx.Outbox(), model.EventAppointmentCompleted, payload); err != nil {
			return err
		}

		result = model.Completion{Appointment: apt, MedicalRecord: record, Invoice: invoice}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		log.Error().Err(err).Str("appointment_id", id.String()).Msg("appointment completion rolled back")
		return nil, apperrors.Internal(fmt.Errorf("failed to complete appointment: %w", err))
	}

	s.metrics.Transition(string(model.AppointmentStatusCompleted))
	log.Info().
		Str("appointment_id", id.String()).
		Str("invoice", result.Invoice.Number).
		Msg("appointment completed")
	return &result, nil
}

// DeleteAppointment removes a scheduled appointment outright. Reserved for
// admins. Appointments that reached a terminal state or carry payments keep
// their clinical and payroll history and cannot be deleted.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		apt, err := tx.Appointments().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if apt.Status != model.AppointmentStatusScheduled {
			return apperrors.NewInvalidState(fmt.Sprintf("cannot delete a %s appointment", apt.Status))
		}
		payments, err := tx.Payments().ListByAppointment(ctx, id)
		if err != nil {
			return err
		}
		if len(payments) > 0 {
			return apperrors.NewInvalidState("cannot delete an appointment with recorded payments")
		}
		return tx.Appointments().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	log.Warn().Str("appointment_id", id.String()).Msg("appointment deleted")
	return nil
}

// claimSlot serialises bookings of slot and fails with a conflict when it is
// already held.
func (s *Service) claimSlot(ctx context.Context, tx repository.Store, slot model.Slot, exclude *uuid.UUID) error {
	if err := tx.Appointments().LockSlot(ctx, slot); err != nil {
		return err
	}
	taken, err := tx.Appointments().HasConflict(ctx, slot, exclude)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflict("doctor already has an appointment in this slot")
	}
	return nil
}

func (s *Service) bookingError(err error, slot model.Slot) error {
	if errors.Is(err, apperrors.ConflictError) {
		s.metrics.Conflict()
		log.Debug().Str("slot", slot.Key()).Msg("booking rejected, slot taken")
	}
	return err
}

func checkTransition(from, to model.AppointmentStatus) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return apperrors.NewInvalidState(fmt.Sprintf("cannot change appointment status from %s to %s", from, to))
}

func invoiceNumber(date model.Date, id uuid.UUID) string {
	return fmt.Sprintf("INV-%s-%s", date.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Field(field, "must be a valid UUID")
	}
	return id, nil
}

func parseIDs(raw map[string]string) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(raw))
	fields := map[string]string{}
	for field, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			fields[field] = "must be a valid UUID"
			continue
		}
		ids[field] = id
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidation(fields)
	}
	return ids, nil
}

func parseSlot(doctorID, date, clock string) (model.Slot, error) {
	fields := map[string]string{}

	id, err := uuid.Parse(doctorID)
	if err != nil {
		fields["doctor_id"] = "must be a valid UUID"
	}
	d, err := model.ParseDate(date)
	if err != nil {
		fields["date"] = "must be a date in YYYY-MM-DD format"
	}
	t, err := model.ParseClock(clock)
	if err != nil {
		fields["time"] = "must be a time in HH:MM format"
	}

	if len(fields) > 0 {
		return model.Slot{}, apperrors.NewValidation(fields)
	}
	return model.Slot{DoctorID: id, Date: d, Time: t}, nil
}
