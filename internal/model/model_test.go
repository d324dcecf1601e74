package model

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, int(time.Thursday), d.WeekdayIndex())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-02-29"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d.Time))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-02T00:00:00Z")))
	assert.Equal(t, "2024-03-02", d.String())

	assert.Error(t, d.Scan(42))
}

func TestClockTime(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Hour())
	assert.Equal(t, 30, c.Minute())
	assert.Equal(t, "10:15", c.Add(45*time.Minute).String())

	withSeconds, err := ParseClock("09:30:59")
	require.NoError(t, err)
	assert.Equal(t, c, withSeconds)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "09:30:00", v)
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2024-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-12", m.Previous().String())
	assert.Equal(t, "2024-01-01", m.FirstDay().String())
	assert.Equal(t, "2024-01-31", m.LastDay().String())

	feb, _ := ParseMonth("2024-02")
	assert.Equal(t, "2024-02-29", feb.LastDay().String())

	_, err = ParseMonth("2024-13")
	assert.Error(t, err)
}

func TestMonth_Window(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	m, _ := ParseMonth("2024-06")
	start, end := m.Window(loc)
	assert.Equal(t, time.Date(2024, 5, 31, 18, 30, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2024, 6, 30, 18, 30, 0, 0, time.UTC), end.UTC())

	start, _ = m.Window(nil)
	assert.Equal(t, time.UTC, start.Location())
}

func TestAppointmentStatus_Transitions(t *testing.T) {
	scheduled := AppointmentStatusScheduled
	for _, to := range []AppointmentStatus{AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow} {
		assert.True(t, scheduled.CanTransitionTo(to), to)
		assert.True(t, to.IsTerminal())
		for _, next := range []AppointmentStatus{AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow} {
			assert.False(t, to.CanTransitionTo(next), "%s -> %s", to, next)
		}
	}
	assert.False(t, scheduled.CanTransitionTo(AppointmentStatusScheduled))

	assert.True(t, AppointmentStatusNoShow.HoldsSlot())
	assert.True(t, AppointmentStatusCompleted.HoldsSlot())
	assert.False(t, AppointmentStatusCancelled.HoldsSlot())
	assert.False(t, AppointmentStatus("pending").Valid())
}

func TestSlotKey(t *testing.T) {
	id := uuid.MustParse("6f1c2b7e-0000-4000-8000-000000000001")
	slot := Slot{DoctorID: id, Date: NewDate(2024, 6, 10), Time: NewClock(10, 0)}
	assert.Equal(t, id.String()+"|2024-06-10|10:00", slot.Key())
}

func TestClinic_IsOpenAt(t *testing.T) {
	c := &Clinic{OpensAt: NewClock(8, 0), ClosesAt: NewClock(18, 0)}
	assert.True(t, c.IsOpenAt(NewClock(8, 0), 30))
	assert.True(t, c.IsOpenAt(NewClock(17, 30), 30))
	assert.False(t, c.IsOpenAt(NewClock(17, 45), 30))
	assert.False(t, c.IsOpenAt(NewClock(7, 30), 30))
}

func TestDoctor_Percentage(t *testing.T) {
	d := &Doctor{Name: "Dr. One"}
	assert.Equal(t, 0.0, d.Percentage())

	pct := 12.5
	d.PaymentPercentage = &pct
	assert.Equal(t, 12.5, d.Percentage())

	name := "Dr. Linked"
	d.UserName = &name
	assert.Equal(t, "Dr. Linked", d.DisplayName())
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 50, Pagination{}.Limit())
	assert.Equal(t, 200, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 0, Pagination{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, Pagination{Page: 3, PageSize: 20}.Offset())
}

func TestRoles(t *testing.T) {
	doctorID := uuid.New()

	_, err := NewRole(RoleKindDoctor, nil, nil)
	assert.Error(t, err)
	_, err = NewRole("superuser", nil, nil)
	assert.Error(t, err)

	role, err := NewRole(RoleKindDoctor, &doctorID, nil)
	require.NoError(t, err)
	kind, gotDoctor, gotClinic := FlattenRole(role)
	assert.Equal(t, RoleKindDoctor, kind)
	assert.Equal(t, doctorID, *gotDoctor)
	assert.Nil(t, gotClinic)

	u := User{Email: "doc@example.com", PasswordHash: "hash", Role: role}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"role":"doctor"`)
	assert.Contains(t, string(b), doctorID.String())
	assert.NotContains(t, string(b), "hash")
}

func TestNewOutboxEvent(t *testing.T) {
	evt, err := NewOutboxEvent(EventAppointmentCreated, map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, EventAppointmentCreated, evt.EventType)
	assert.JSONEq(t, `{"k":"v"}`, string(evt.Payload))
}
