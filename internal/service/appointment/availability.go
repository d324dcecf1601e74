package appointment

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// AvailableSlots lists the free start times for a doctor on a date. Starts
// are stepped through each availability window for that weekday, clipped to
// the clinic's opening hours, and drop any time held by a non-cancelled
// appointment.
func (s *Service) AvailableSlots(ctx context.Context, q *model.AvailabilityQuery) (*model.Availability, error) {
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}

	doctorID, err := parseID("doctor_id", q.DoctorID)
	if err != nil {
		return nil, err
	}
	date, err := model.ParseDate(q.Date)
	if err != nil {
		return nil, err
	}

	doctor, err := s.store.Doctors().Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	var clinic *model.Clinic
	if doctor.ClinicID != nil {
		if clinic, err = s.store.Clinics().Get(ctx, *doctor.ClinicID); err != nil {
			return nil, err
		}
	}

	step := DefaultSlotMinutes
	if clinic != nil && clinic.SlotMinutes > 0 {
		step = clinic.SlotMinutes
	}
	if q.ServiceID != "" {
		serviceID, err := parseID("service_id", q.ServiceID)
		if err != nil {
			return nil, err
		}
		service, err := s.store.Clinics().GetService(ctx, serviceID)
		if err != nil {
			return nil, err
		}
		if clinic != nil && service.ClinicID != clinic.ID {
			return nil, apperrors.Field("service_id", "service does not belong to the clinic")
		}
		if service.DurationMinutes > 0 {
			step = service.DurationMinutes
		}
	}

	weekday := date.WeekdayIndex()
	windows, err := s.store.Doctors().ListAvailability(ctx, doctorID, &weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	booked, err := s.store.Appointments().BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	return &model.Availability{
		DoctorID:    doctorID,
		Date:        date,
		SlotMinutes: step,
		Slots:       freeSlots(windows, clinic, step, booked),
	}, nil
}

func freeSlots(windows []*model.DoctorAvailability, clinic *model.Clinic, step int, booked []model.ClockTime) []model.ClockTime {
	taken := make(map[model.ClockTime]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}

	seen := map[model.ClockTime]struct{}{}
	slots := []model.ClockTime{}
	for _, w := range windows {
		start, end := w.StartsAt, w.EndsAt
		if clinic != nil {
			if start < clinic.OpensAt {
				start = clinic.OpensAt
			}
			if end > clinic.ClosesAt {
				end = clinic.ClosesAt
			}
		}

		for t := start; t+model.ClockTime(step) <= end; t += model.ClockTime(step) {
			if _, ok := taken[t]; ok {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			slots = append(slots, t)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}
