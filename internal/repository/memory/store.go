// Package memory is an in-process repository.Store for tests. Transactions
// are serialised and roll back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// FailFunc is consulted before every write; a non-nil return aborts the
// write with that error. Ops are named "<table>.<method>", e.g.
// "invoice_items.create".
type FailFunc func(op string) error

type state struct {
	appointments   map[uuid.UUID]model.Appointment
	clinics        map[uuid.UUID]model.Clinic
	services       map[uuid.UUID]model.Service
	doctors        map[uuid.UUID]model.Doctor
	availability   map[uuid.UUID][]model.DoctorAvailability
	patients       map[uuid.UUID]model.Patient
	payments       map[uuid.UUID]model.Payment
	bonuses        map[uuid.UUID]model.DoctorBonus
	medicalRecords map[uuid.UUID]model.MedicalRecord
	invoices       map[uuid.UUID]model.Invoice
	invoiceItems   map[uuid.UUID]model.InvoiceItem
	users          map[uuid.UUID]model.User
	settings       *model.Settings
	outbox         map[uuid.UUID]model.OutboxEvent
}

func newState() *state {
	return &state{
		appointments:   map[uuid.UUID]model.Appointment{},
		clinics:        map[uuid.UUID]model.Clinic{},
		services:       map[uuid.UUID]model.Service{},
		doctors:        map[uuid.UUID]model.Doctor{},
		availability:   map[uuid.UUID][]model.DoctorAvailability{},
		patients:       map[uuid.UUID]model.Patient{},
		payments:       map[uuid.UUID]model.Payment{},
		bonuses:        map[uuid.UUID]model.DoctorBonus{},
		medicalRecords: map[uuid.UUID]model.MedicalRecord{},
		invoices:       map[uuid.UUID]model.Invoice{},
		invoiceItems:   map[uuid.UUID]model.InvoiceItem{},
		users:          map[uuid.UUID]model.User{},
		outbox:         map[uuid.UUID]model.OutboxEvent{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.clinics {
		c.clinics[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.doctors {
		c.doctors[k] = v
	}
	for k, v := range s.availability {
		c.availability[k] = append([]model.DoctorAvailability(nil), v...)
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.bonuses {
		c.bonuses[k] = v
	}
	for k, v := range s.medicalRecords {
		c.medicalRecords[k] = v
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	for k, v := range s.invoiceItems {
		c.invoiceItems[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	if s.settings != nil {
		settings := *s.settings
		c.settings = &settings
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

type shared struct {
	mu   sync.Mutex
	data *state
	fail FailFunc
	now  func() time.Time
}

// Store implements repository.Store in memory.
type Store struct {
	sh   *shared
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{sh: &shared{data: newState(), now: time.Now}}
}

// SetFailFunc installs a write fault injector. Pass nil to clear it.
func (s *Store) SetFailFunc(fn FailFunc) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.sh.fail = fn
}

// SetClock overrides the clock used for created_at defaults.
func (s *Store) SetClock(now func() time.Time) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.sh.now = now
}

// SetSettings seeds the settings row.
func (s *Store) SetSettings(settings model.Settings) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.sh.data.settings = &settings
}

// OutboxEvents returns every stored outbox event ordered by creation.
func (s *Store) OutboxEvents() []model.OutboxEvent {
	unlock := s.lock()
	defer unlock()
	events := make([]model.OutboxEvent, 0, len(s.sh.data.outbox))
	for _, e := range s.sh.data.outbox {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events
}

// lock takes the store mutex unless the caller already holds it through
// WithinTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.sh.mu.Lock()
	return s.sh.mu.Unlock
}

func (s *Store) check(op string) error {
	if s.sh.fail == nil {
		return nil
	}
	return s.sh.fail(op)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()

	snapshot := s.sh.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.sh.data = snapshot
			panic(p)
		}
		if err != nil {
			s.sh.data = snapshot
		}
	}()

	return fn(&Store{sh: s.sh, inTx: true})
}

func (s *Store) Appointments() repository.AppointmentRepository { return &appointmentRepo{s} }
func (s *Store) Clinics() repository.ClinicRepository           { return &clinicRepo{s} }
func (s *Store) Doctors() repository.DoctorRepository           { return &doctorRepo{s} }
func (s *Store) Patients() repository.PatientRepository         { return &patientRepo{s} }
func (s *Store) Payments() repository.PaymentRepository         { return &paymentRepo{s} }
func (s *Store) Bonuses() repository.BonusRepository            { return &bonusRepo{s} }
func (s *Store) MedicalRecords() repository.MedicalRecordRepository {
	return &medicalRecordRepo{s}
}
func (s *Store) Invoices() repository.InvoiceRepository { return &invoiceRepo{s} }
func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Settings() repository.SettingsRepository {
	return &settingsRepo{s}
}
func (s *Store) Outbox() repository.OutboxRepository { return &outboxRepo{s} }

func touch(b *model.Base, now time.Time) {
	b.Touch(now.UTC())
}

func paginate[T any](items []T, p model.Pagination) []T {
	offset := p.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// appointments

type appointmentRepo struct{ s *Store }

func (r *appointmentRepo) slotTaken(a model.Appointment) bool {
	for id, other := range r.s.sh.data.appointments {
		if id == a.ID || !other.Status.HoldsSlot() {
			continue
		}
		if other.Slot().Key() == a.Slot().Key() {
			return true
		}
	}
	return false
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("appointments.create"); err != nil {
		return err
	}
	touch(&appointment.Base, r.s.sh.now())
	if appointment.Status.HoldsSlot() && r.slotTaken(*appointment) {
		return apperrors.NewConflict("doctor already has an appointment in this slot")
	}
	r.s.sh.data.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	unlock := r.s.lock()
	defer unlock()
	a, ok := r.s.sh.data.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return &a, nil
}

func (r *appointmentRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.Get(ctx, id)
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("appointments.update"); err != nil {
		return err
	}
	if _, ok := r.s.sh.data.appointments[appointment.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if appointment.Status.HoldsSlot() && r.slotTaken(*appointment) {
		return apperrors.NewConflict("doctor already has an appointment in this slot")
	}
	appointment.UpdatedAt = r.s.sh.now().UTC()
	r.s.sh.data.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("appointments.delete"); err != nil {
		return err
	}
	if _, ok := r.s.sh.data.appointments[id]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	delete(r.s.sh.data.appointments, id)
	return nil
}

func (r *appointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	unlock := r.s.lock()
	defer unlock()
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	var out []*model.Appointment
	for _, a := range r.s.sh.data.appointments {
		a := a
		switch {
		case filters.ClinicID != nil && a.ClinicID != *filters.ClinicID,
			filters.DoctorID != nil && a.DoctorID != *filters.DoctorID,
			filters.PatientID != nil && a.PatientID != *filters.PatientID,
			filters.Status != "" && a.Status != filters.Status,
			filters.From != nil && a.Date.Before(filters.From.Time),
			filters.To != nil && a.Date.After(filters.To.Time):
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].Time < out[j].Time
	})
	return paginate(out, filters.Pagination), nil
}

func (r *appointmentRepo) HasConflict(ctx context.Context, slot model.Slot, excludeID *uuid.UUID) (bool, error) {
	unlock := r.s.lock()
	defer unlock()
	for id, a := range r.s.sh.data.appointments {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if a.Status.HoldsSlot() && a.Slot().Key() == slot.Key() {
			return true, nil
		}
	}
	return false, nil
}

// LockSlot is a no-op: transactions already run one at a time.
func (r *appointmentRepo) LockSlot(ctx context.Context, slot model.Slot) error {
	return nil
}

func (r *appointmentRepo) BookedTimes(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.ClockTime, error) {
	unlock := r.s.lock()
	defer unlock()
	times := []model.ClockTime{}
	for _, a := range r.s.sh.data.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date.Time) && a.Status.HoldsSlot() {
			times = append(times, a.Time)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times, nil
}

// clinics and services

type clinicRepo struct{ s *Store }

func (r *clinicRepo) Create(ctx context.Context, clinic *model.Clinic) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("clinics.create"); err != nil {
		return err
	}
	touch(&clinic.Base, r.s.sh.now())
	r.s.sh.data.clinics[clinic.ID] = *clinic
	return nil
}

func (r *clinicRepo) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	unlock := r.s.lock()
	defer unlock()
	c, ok := r.s.sh.data.clinics[id]
	if !ok {
		return nil, apperrors.NotFound("clinic", nil)
	}
	return &c, nil
}

func (r *clinicRepo) Update(ctx context.Context, clinic *model.Clinic) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("clinics.update"); err != nil {
		return err
	}
	if _, ok := r.s.sh.data.clinics[clinic.ID]; !ok {
		return apperrors.NotFound("clinic", nil)
	}
	clinic.UpdatedAt = r.s.sh.now().UTC()
	r.s.sh.data.clinics[clinic.ID] = *clinic
	return nil
}

func (r *clinicRepo) List(ctx context.Context) ([]*model.Clinic, error) {
	unlock := r.s.lock()
	defer unlock()
	out := []*model.Clinic{}
	for _, c := range r.s.sh.data.clinics {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *clinicRepo) CreateService(ctx context.Context, service *model.Service) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("services.create"); err != nil {
		return err
	}
	touch(&service.Base, r.s.sh.now())
	r.s.sh.data.services[service.ID] = *service
	return nil
}

func (r *clinicRepo) GetService(ctx context.Context, serviceID uuid.UUID) (*model.Service, error) {
	unlock := r.s.lock()
	defer unlock()
	svc, ok := r.s.sh.data.services[serviceID]
	if !ok {
		return nil, apperrors.NotFound("service", nil)
	}
	return &svc, nil
}

func (r *clinicRepo) ListServices(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error) {
	unlock := r.s.lock()
	defer unlock()
	out := []*model.Service{}
	for _, svc := range r.s.sh.data.services {
		if svc.ClinicID == clinicID {
			svc := svc
			out = append(out, &svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// doctors

type doctorRepo struct{ s *Store }

func (r *doctorRepo) withUserName(d model.Doctor) *model.Doctor {
	if d.UserID != nil {
		if u, ok := r.s.sh.data.users[*d.UserID]; ok {
			name := u.Name
			d.UserName = &name
		}
	}
	return &d
}

func (r *doctorRepo) Create(ctx context.Context, doctor *model.Doctor) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("doctors.create"); err != nil {
		return err
	}
	touch(&doctor.Base, r.s.sh.now())
	stored := *doctor
	stored.UserName = nil
	r.s.sh.data.doctors[doctor.ID] = stored
	return nil
}

func (r *doctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	unlock := r.s.lock()
	defer unlock()
	d, ok := r.s.sh.data.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return r.withUserName(d), nil
}

func (r *doctorRepo) List(ctx context.Context, clinicID *uuid.UUID) ([]*model.Doctor, error) {
	unlock := r.s.lock()
	defer unlock()
	out := []*model.Doctor{}
	for _, d := range r.s.sh.data.doctors {
		if clinicID != nil && (d.ClinicID == nil || *d.ClinicID != *clinicID) {
			continue
		}
		out = append(out, r.withUserName(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *doctorRepo) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, windows []*model.DoctorAvailability) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("doctor_availability.replace"); err != nil {
		return err
	}
	stored := make([]model.DoctorAvailability, 0, len(windows))
	for _, w := range windows {
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
		w.DoctorID = doctorID
		stored = append(stored, *w)
	}
	r.s.sh.data.availability[doctorID] = stored
	return nil
}

func (r *doctorRepo) ListAvailability(ctx context.Context, doctorID uuid.UUID, weekday *int) ([]*model.DoctorAvailability, error) {
	unlock := r.s.lock()
	defer unlock()
	out := []*model.DoctorAvailability{}
	for _, w := range r.s.sh.data.availability[doctorID] {
		if weekday != nil && w.Weekday != *weekday {
			continue
		}
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartsAt < out[j].StartsAt
	})
	return out, nil
}

// patients

type patientRepo struct{ s *Store }

func (r *patientRepo) Create(ctx context.Context, patient *model.Patient) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("patients.create"); err != nil {
		return err
	}
	touch(&patient.Base, r.s.sh.now())
	r.s.sh.data.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	unlock := r.s.lock()
	defer unlock()
	p, ok := r.s.sh.data.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return &p, nil
}

func (r *patientRepo) Update(ctx context.Context, patient *model.Patient) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("patients.update"); err != nil {
		return err
	}
	if _, ok := r.s.sh.data.patients[patient.ID]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	patient.UpdatedAt = r.s.sh.now().UTC()
	r.s.sh.data.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepo) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	unlock := r.s.lock()
	defer unlock()
	if filters == nil {
		filters = &model.PatientFilters{}
	}
	search := strings.ToLower(filters.Search)

	out := []*model.Patient{}
	for _, p := range r.s.sh.data.patients {
		if filters.ClinicID != nil && (p.ClinicID == nil || *p.ClinicID != *filters.ClinicID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filters.Pagination), nil
}

// payments

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("payments.create"); err != nil {
		return err
	}
	touch(&payment.Base, r.s.sh.now())
	r.s.sh.data.payments[payment.ID] = *payment
	return nil
}

func (r *paymentRepo) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Payment, error) {
	unlock := r.s.lock()
	defer unlock()
	out := []*model.Payment{}
	for _, p := range r.s.sh.data.payments {
		if p.AppointmentID == appointmentID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *paymentRepo) SumForDoctor(ctx context.Context, doctorID uuid.UUID, from, to model.Date) (float64, error) {
	unlock := r.s.lock()
	defer unlock()
	var total float64
	for _, p := range r.s.sh.data.payments {
		a, ok := r.s.sh.data.appointments[p.AppointmentID]
		if !ok || a.DoctorID != doctorID {
			continue
		}
		if a.Date.Before(from.Time) || a.Date.After(to.Time) {
			continue
		}
		total += p.Amount
	}
	return total, nil
}

// bonuses

type bonusRepo struct{ s *Store }

func (r *bonusRepo) Create(ctx context.Context, bonus *model.DoctorBonus) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("doctor_bonuses.create"); err != nil {
		return err
	}
	if bonus.ID == uuid.Nil {
		bonus.ID = uuid.New()
	}
	if bonus.CreatedAt.IsZero() {
		bonus.CreatedAt = r.s.sh.now().UTC()
	}
	r.s.sh.data.bonuses[bonus.ID] = *bonus
	return nil
}

func (r *bonusRepo) inWindow(b model.DoctorBonus, doctorID uuid.UUID, from, to time.Time) bool {
	return b.DoctorID == doctorID && !b.CreatedAt.Before(from) && b.CreatedAt.Before(to)
}

func (r *bonusRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.DoctorBonus, error) {
	unlock := r.s.lock()
	defer unlock()
	out := []*model.DoctorBonus{}
	for _, b := range r.s.sh.data.bonuses {
		if r.inWindow(b, doctorID, from, to) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *bonusRepo) SumForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (float64, error) {
	unlock := r.s.lock()
	defer unlock()
	var total float64
	for _, b := range r.s.sh.data.bonuses {
		if r.inWindow(b, doctorID, from, to) {
			total += b.Amount
		}
	}
	return total, nil
}

// medical records and invoices

type medicalRecordRepo struct{ s *Store }

func (r *medicalRecordRepo) Create(ctx context.Context, record *model.MedicalRecord) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("medical_records.create"); err != nil {
		return err
	}
	for _, existing := range r.s.sh.data.medicalRecords {
		if existing.AppointmentID == record.AppointmentID {
			return apperrors.NewConflict("appointment already has a medical record")
		}
	}
	touch(&record.Base, r.s.sh.now())
	r.s.sh.data.medicalRecords[record.ID] = *record
	return nil
}

func (r *medicalRecordRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	unlock := r.s.lock()
	defer unlock()
	for _, rec := range r.s.sh.data.medicalRecords {
		if rec.AppointmentID == appointmentID {
			rec := rec
			return &rec, nil
		}
	}
	return nil, apperrors.NotFound("medical record", nil)
}

func (r *medicalRecordRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	unlock := r.s.lock()
	defer unlock()
	out := []*model.MedicalRecord{}
	for _, rec := range r.s.sh.data.medicalRecords {
		if rec.PatientID == patientID {
			rec := rec
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type invoiceRepo struct{ s *Store }

func (r *invoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("invoices.create"); err != nil {
		return err
	}
	for _, existing := range r.s.sh.data.invoices {
		if existing.AppointmentID == invoice.AppointmentID {
			return apperrors.NewConflict("appointment already has an invoice")
		}
	}
	touch(&invoice.Base, r.s.sh.now())
	stored := *invoice
	stored.Items = nil
	r.s.sh.data.invoices[invoice.ID] = stored
	return nil
}

func (r *invoiceRepo) CreateItem(ctx context.Context, item *model.InvoiceItem) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("invoice_items.create"); err != nil {
		return err
	}
	if _, ok := r.s.sh.data.invoices[item.InvoiceID]; !ok {
		return apperrors.NotFound("invoice", nil)
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.sh.data.invoiceItems[item.ID] = *item
	return nil
}

func (r *invoiceRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Invoice, error) {
	unlock := r.s.lock()
	defer unlock()
	for _, inv := range r.s.sh.data.invoices {
		if inv.AppointmentID != appointmentID {
			continue
		}
		inv.Items = []model.InvoiceItem{}
		for _, item := range r.s.sh.data.invoiceItems {
			if item.InvoiceID == inv.ID {
				inv.Items = append(inv.Items, item)
			}
		}
		return &inv, nil
	}
	return nil, apperrors.NotFound("invoice", nil)
}

// users

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("users.create"); err != nil {
		return err
	}
	for _, existing := range r.s.sh.data.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperrors.NewConflict("email already registered")
		}
	}
	touch(&user.Base, r.s.sh.now())
	user.Email = strings.ToLower(user.Email)
	r.s.sh.data.users[user.ID] = *user
	return nil
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	unlock := r.s.lock()
	defer unlock()
	u, ok := r.s.sh.data.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	unlock := r.s.lock()
	defer unlock()
	for _, u := range r.s.sh.data.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

// settings

type settingsRepo struct{ s *Store }

func (r *settingsRepo) Get(ctx context.Context) (*model.Settings, error) {
	unlock := r.s.lock()
	defer unlock()
	if r.s.sh.data.settings == nil {
		return nil, apperrors.NotFound("settings", nil)
	}
	settings := *r.s.sh.data.settings
	return &settings, nil
}

// outbox

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.check("outbox_events.create"); err != nil {
		return err
	}
	now := r.s.sh.now().UTC()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now
	event.UpdatedAt = now
	r.s.sh.data.outbox[event.ID] = *event
	return nil
}

func (r *outboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	unlock := r.s.lock()
	defer unlock()
	now := r.s.sh.now()
	out := []*model.OutboxEvent{}
	for _, e := range r.s.sh.data.outbox {
		if e.Status != model.OutboxStatusPending && e.Status != model.OutboxStatusRetry {
			continue
		}
		if e.RetryAt != nil && e.RetryAt.After(now) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *outboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	unlock := r.s.lock()
	defer unlock()
	e, ok := r.s.sh.data.outbox[id]
	if !ok {
		return apperrors.NotFound("outbox event", nil)
	}
	now := r.s.sh.now().UTC()
	e.Status = status
	e.ErrorMessage = errorMessage
	e.RetryAt = retryAt
	if status == model.OutboxStatusRetry || status == model.OutboxStatusFailed {
		e.RetryCount++
	}
	if status == model.OutboxStatusProcessed {
		e.ProcessedAt = &now
	}
	e.UpdatedAt = now
	r.s.sh.data.outbox[id] = e
	return nil
}

func (r *outboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	unlock := r.s.lock()
	defer unlock()
	var n int64
	for id, e := range r.s.sh.data.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.s.sh.data.outbox, id)
			n++
		}
	}
	return n, nil
}
