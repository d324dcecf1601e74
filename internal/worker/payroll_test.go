package worker

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type staticSettings model.Settings

func (s staticSettings) Get(ctx context.Context) (model.Settings, error) {
	return model.Settings(s), nil
}

type recordingCloser struct {
	months []model.Month
	err    error
}

func (c *recordingCloser) CloseMonth(ctx context.Context, month model.Month) (*model.CommissionReport, error) {
	c.months = append(c.months, month)
	if c.err != nil {
		return nil, c.err
	}
	return &model.CommissionReport{Month: month.String()}, nil
}

func TestPayrollRunOnce(t *testing.T) {
	closer := &recordingCloser{}
	s := NewPayrollScheduler(closer, staticSettings{Timezone: "UTC"}, "0 2 1 * *", logger.Nop())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC) }

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-02", report.Month)
	require.Len(t, closer.months, 1)
	assert.Equal(t, "2024-02", closer.months[0].String())
}

func TestPayrollRunOnce_Timezone(t *testing.T) {
	closer := &recordingCloser{}
	s := NewPayrollScheduler(closer, staticSettings{Timezone: "Asia/Kolkata"}, "0 2 1 * *", logger.Nop())
	// already 1 Feb 05:00 in Kolkata
	s.now = func() time.Time { return time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC) }

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01", closer.months[0].String())
}

func TestPayrollRunOnce_Error(t *testing.T) {
	closer := &recordingCloser{err: errors.New("db down")}
	s := NewPayrollScheduler(closer, staticSettings{}, "0 2 1 * *", logger.Nop())

	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, closer.err)
}

func TestPayrollStart_BadSchedule(t *testing.T) {
	s := NewPayrollScheduler(&recordingCloser{}, staticSettings{}, "not a schedule", logger.Nop())
	assert.Error(t, s.Start(context.Background()))
}
