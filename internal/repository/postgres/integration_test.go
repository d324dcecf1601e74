package postgres_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
	"github.com/jwalitptl/clinic-api/internal/service/clinic"
	"github.com/jwalitptl/clinic-api/internal/service/commission"
	"github.com/jwalitptl/clinic-api/internal/service/doctor"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/internal/service/payment"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// openTestDB connects to CLINIC_TEST_DATABASE_URL (a postgres:// URL) inside
// a throwaway schema that is dropped when the test ends.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("CLINIC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CLINIC_TEST_DATABASE_URL not set")
	}

	admin, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)

	schema := "clinic_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	_, err = admin.Exec(`CREATE SCHEMA ` + schema)
	require.NoError(t, err)

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	db, err := sqlx.Connect("postgres", url+sep+"search_path="+schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		_, _ = admin.Exec(`DROP SCHEMA ` + schema + ` CASCADE`)
		admin.Close()
	})

	_, err = postgres.NewMigrator(db, postgres.Migrations()).Up(context.Background())
	require.NoError(t, err)
	return db
}

type fixture struct {
	store        *postgres.Store
	appointments *appointment.Service
	payments     *payment.Service
	commissions  *commission.Service
	clinicID     string
	serviceID    string
	doctorID     string
	patients     []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := postgres.NewStore(openTestDB(t))
	v := validator.New()
	m := metrics.New("it", prometheus.NewRegistry())
	sp := settings.NewService(store.Settings(), model.Settings{AppName: "Clinic", Currency: "USD", Timezone: "UTC"}, time.Minute)

	c, err := clinic.NewService(store.Clinics(), v).CreateClinic(ctx, &model.CreateClinicRequest{
		Name: "Downtown", OpensAt: "08:00", ClosesAt: "18:00",
	})
	require.NoError(t, err)
	svc, err := clinic.NewService(store.Clinics(), v).CreateService(ctx, c.ID, &model.CreateServiceRequest{
		Name: "Consultation", DurationMinutes: 30, Price: 200,
	})
	require.NoError(t, err)
	pct := 20.0
	d, err := doctor.NewService(store, v).CreateDoctor(ctx, &model.CreateDoctorRequest{
		ClinicID: c.ID.String(), Name: "Dr. One", PaymentPercentage: &pct,
	})
	require.NoError(t, err)

	f := &fixture{
		store:        store,
		appointments: appointment.NewService(store, v, m),
		payments:     payment.NewService(store, v, m),
		commissions:  commission.NewService(store, sp, v, m),
		clinicID:     c.ID.String(),
		serviceID:    svc.ID.String(),
		doctorID:     d.ID.String(),
	}
	for i := 0; i < 2; i++ {
		p, err := patient.NewService(store, v).CreatePatient(ctx, &model.CreatePatientRequest{Name: fmt.Sprintf("Patient %d", i+1)})
		require.NoError(t, err)
		f.patients = append(f.patients, p.ID.String())
	}
	return f
}

func (f *fixture) book(ctx context.Context, patientID, date, clock string) (*model.Appointment, error) {
	return f.appointments.CreateAppointment(ctx, &model.CreateAppointmentRequest{
		PatientID: patientID,
		DoctorID:  f.doctorID,
		ServiceID: f.serviceID,
		ClinicID:  f.clinicID,
		Date:      date,
		Time:      clock,
	})
}

func TestIntegration_SlotExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.book(ctx, f.patients[0], "2024-06-10", "10:00")
	require.NoError(t, err)

	_, err = f.book(ctx, f.patients[1], "2024-06-10", "10:00")
	assert.ErrorIs(t, err, apperrors.ConflictError)

	_, err = f.appointments.CancelAppointment(ctx, first.ID, &model.CancelAppointmentRequest{})
	require.NoError(t, err)

	_, err = f.book(ctx, f.patients[1], "2024-06-10", "10:00")
	assert.NoError(t, err)
}

func TestIntegration_ConcurrentBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.book(ctx, f.patients[i%2], "2024-06-11", "09:30")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	booked := 0
	for err := range errs {
		if err == nil {
			booked++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ConflictError)
	}
	assert.Equal(t, 1, booked)
}

func TestIntegration_CompletionAndCommission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	appt, err := f.book(ctx, f.patients[0], now.Format("2006-01-02"), "11:00")
	require.NoError(t, err)

	done, err := f.appointments.CompleteAppointment(ctx, appt.ID, &model.CompleteAppointmentRequest{Diagnosis: "Flu"})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Appointment.Status)
	assert.Equal(t, 200.0, done.Invoice.Total)

	_, err = f.appointments.CompleteAppointment(ctx, appt.ID, &model.CompleteAppointmentRequest{Diagnosis: "Again"})
	assert.ErrorIs(t, err, apperrors.InvalidStateError)

	_, err = f.payments.RecordPayment(ctx, appt.ID, &model.RecordPaymentRequest{Amount: 1000, Method: "cash"})
	require.NoError(t, err)

	doctorID := uuid.MustParse(f.doctorID)
	_, err = f.commissions.AddDoctorBonus(ctx, doctorID, &model.AddBonusRequest{Amount: 50, Note: "monthly target"})
	require.NoError(t, err)

	month, err := model.ParseMonth(now.Format("2006-01"))
	require.NoError(t, err)
	rows, err := f.commissions.ComputeMonthlyCommission(ctx, month, []uuid.UUID{doctorID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1000.0, rows[0].Payments)
	assert.Equal(t, int64(200), rows[0].Payout)
	assert.Equal(t, 50.0, rows[0].Bonus)
	assert.Equal(t, 250.0, rows[0].Total)
}
