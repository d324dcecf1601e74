package commission

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func pct(v float64) *float64 { return &v }

type fixture struct {
	store   *memory.Store
	svc     *Service
	patient *model.Patient
	service *model.Service
	clinic  *model.Clinic
	seq     int
}

func setup(t *testing.T, tz string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	store.SetSettings(model.Settings{AppName: "Clinic", Currency: "USD", Timezone: tz})

	clinic := &model.Clinic{Name: "Main", OpensAt: model.NewClock(8, 0), ClosesAt: model.NewClock(20, 0)}
	require.NoError(t, store.Clinics().Create(ctx, clinic))
	service := &model.Service{ClinicID: clinic.ID, Name: "Visit", DurationMinutes: 30, Price: 100}
	require.NoError(t, store.Clinics().CreateService(ctx, service))
	patient := &model.Patient{Name: "P"}
	require.NoError(t, store.Patients().Create(ctx, patient))

	sp := settings.NewService(store.Settings(), model.Settings{Timezone: "UTC"}, time.Minute)
	return &fixture{
		store:   store,
		svc:     NewService(store, sp, validator.New(), metrics.Nop()),
		patient: patient,
		service: service,
		clinic:  clinic,
	}
}

func (f *fixture) doctor(t *testing.T, name string, percentage *float64) *model.Doctor {
	t.Helper()
	d := &model.Doctor{Name: name, PaymentPercentage: percentage}
	require.NoError(t, f.store.Doctors().Create(context.Background(), d))
	return d
}

// pay books an appointment for doctor on date and records a payment of amount.
func (f *fixture) pay(t *testing.T, doctor *model.Doctor, date string, amount float64) {
	t.Helper()
	ctx := context.Background()
	d, err := model.ParseDate(date)
	require.NoError(t, err)

	apt := &model.Appointment{
		PatientID: f.patient.ID,
		DoctorID:  doctor.ID,
		ServiceID: f.service.ID,
		ClinicID:  f.clinic.ID,
		Date:      d,
		Time:      model.NewClock(8, 0) + model.ClockTime(f.seq),
		Status:    model.AppointmentStatusCompleted,
	}
	f.seq++
	require.NoError(t, f.store.Appointments().Create(ctx, apt))
	require.NoError(t, f.store.Payments().Create(ctx, &model.Payment{
		AppointmentID: apt.ID,
		PatientID:     f.patient.ID,
		Amount:        amount,
		Method:        "cash",
		Status:        model.PaymentStatusPaid,
	}))
}

func (f *fixture) bonus(t *testing.T, doctor *model.Doctor, amount float64, at time.Time) {
	t.Helper()
	require.NoError(t, f.store.Bonuses().Create(context.Background(), &model.DoctorBonus{
		DoctorID:  doctor.ID,
		Amount:    amount,
		CreatedAt: at,
	}))
}

func TestPayout(t *testing.T) {
	assert.Equal(t, int64(200), Payout(1000, 20))
	assert.Equal(t, int64(0), Payout(1000, 0))
	assert.Equal(t, int64(33), Payout(100, 33.3))
	assert.Equal(t, int64(13), Payout(125, 10), "12.5 rounds half away from zero")
	assert.Equal(t, int64(1), Payout(10.05, 10), "1.005 rounds to 1")
}

func TestComputeMonthlyCommission(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()
	month := model.Month{Year: 2025, Month: time.January}

	d := f.doctor(t, "Dr. Raw", pct(20))
	f.pay(t, d, "2025-01-01", 400)
	f.pay(t, d, "2025-01-31", 600)
	f.pay(t, d, "2024-12-31", 999)
	f.pay(t, d, "2025-02-01", 999)

	rows, err := f.svc.ComputeMonthlyCommission(ctx, month, []uuid.UUID{d.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1000.0, rows[0].Payments)
	assert.Equal(t, int64(200), rows[0].Payout)
	assert.Equal(t, 200.0, rows[0].Total)
	assert.Equal(t, "Dr. Raw", rows[0].Name)

	f.bonus(t, d, 50, time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC))
	rows, err = f.svc.ComputeMonthlyCommission(ctx, month, []uuid.UUID{d.ID})
	require.NoError(t, err)
	assert.Equal(t, 50.0, rows[0].Bonus)
	assert.Equal(t, 250.0, rows[0].Total)
}

func TestComputeMonthlyCommission_AllDoctorsAndDefaults(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()

	noPct := f.doctor(t, "Dr. Unset", nil)
	f.pay(t, noPct, "2025-01-05", 500)
	f.doctor(t, "Dr. Idle", pct(50))

	rows, err := f.svc.ComputeMonthlyCommission(ctx, model.Month{Year: 2025, Month: time.January}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byName := map[string]model.CommissionRow{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.Equal(t, 500.0, byName["Dr. Unset"].Payments)
	assert.Equal(t, int64(0), byName["Dr. Unset"].Payout, "null percentage counts as zero")
	assert.Equal(t, 0.0, byName["Dr. Idle"].Total)
}

func TestComputeMonthlyCommission_LinkedUserName(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()

	doctorID := uuid.New()
	user := &model.User{Email: "doc@example.com", Name: "Dr. Linked", Role: model.DoctorRole{DoctorID: doctorID}}
	require.NoError(t, f.store.Users().Create(ctx, user))

	d := &model.Doctor{Base: model.Base{ID: doctorID}, UserID: &user.ID, Name: "raw name", PaymentPercentage: pct(10)}
	require.NoError(t, f.store.Doctors().Create(ctx, d))

	rows, err := f.svc.ComputeMonthlyCommission(ctx, model.Month{Year: 2025, Month: time.January}, []uuid.UUID{d.ID})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Linked", rows[0].Name)
}

func TestComputeMonthlyCommission_BonusWindowUsesPracticeTimezone(t *testing.T) {
	f := setup(t, "Asia/Kolkata")
	ctx := context.Background()
	d := f.doctor(t, "Dr. Tz", pct(10))

	// 2025-01-31 20:00 UTC is already 1 February in Kolkata.
	f.bonus(t, d, 70, time.Date(2025, time.January, 31, 20, 0, 0, 0, time.UTC))
	// 2024-12-31 20:00 UTC is 1 January in Kolkata.
	f.bonus(t, d, 30, time.Date(2024, time.December, 31, 20, 0, 0, 0, time.UTC))

	rows, err := f.svc.ComputeMonthlyCommission(ctx, model.Month{Year: 2025, Month: time.January}, []uuid.UUID{d.ID})
	require.NoError(t, err)
	assert.Equal(t, 30.0, rows[0].Bonus)
}

func TestComputeMonthlyCommission_UnknownDoctor(t *testing.T) {
	f := setup(t, "UTC")
	_, err := f.svc.ComputeMonthlyCommission(context.Background(), model.Month{Year: 2025, Month: time.January}, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, apperrors.NotFoundError)
}

func TestAddDoctorBonus_RoundsToCents(t *testing.T) {
	f := setup(t, "UTC")
	d := f.doctor(t, "Dr. Cents", pct(10))

	bonus, err := f.svc.AddDoctorBonus(context.Background(), d.ID, &model.AddBonusRequest{Amount: 1.005})
	require.NoError(t, err)
	assert.Equal(t, 1.01, bonus.Amount)
}

func TestAddDoctorBonus(t *testing.T) {
	f := setup(t, "UTC")
	ctx := context.Background()
	d := f.doctor(t, "Dr. Bonus", pct(10))

	bonus, err := f.svc.AddDoctorBonus(ctx, d.ID, &model.AddBonusRequest{Amount: 50, Note: " on-call weekend "})
	require.NoError(t, err)
	assert.Equal(t, "on-call weekend", bonus.Note)
	assert.Equal(t, 50.0, bonus.Amount)

	_, err = f.svc.AddDoctorBonus(ctx, d.ID, &model.AddBonusRequest{Amount: 0})
	assert.ErrorIs(t, err, apperrors.ValidationError)

	_, err = f.svc.AddDoctorBonus(ctx, uuid.New(), &model.AddBonusRequest{Amount: 10})
	assert.ErrorIs(t, err, apperrors.NotFoundError)

	list, err := f.svc.ListBonuses(ctx, d.ID, model.MonthOf(bonus.CreatedAt))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventBonusAdded, events[0].EventType)
}

func TestCloseMonth(t *testing.T) {
	f := setup(t, "UTC")
	d := f.doctor(t, "Dr. Close", pct(20))
	f.pay(t, d, "2025-01-10", 1000)

	report, err := f.svc.CloseMonth(context.Background(), model.Month{Year: 2025, Month: time.January})
	require.NoError(t, err)
	assert.Equal(t, "2025-01", report.Month)
	assert.Equal(t, "USD", report.Currency)

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPayrollMonthClosed, events[0].EventType)
	assert.Contains(t, string(events[0].Payload), `"payout":200`)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, time.February, m.Month)

	_, err = ParseMonth("02-2025")
	assert.ErrorIs(t, err, apperrors.ValidationError)
}
