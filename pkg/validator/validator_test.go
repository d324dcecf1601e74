package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type bookingRequest struct {
	DoctorID string  `json:"doctor_id" validate:"required,uuid"`
	Date     string  `json:"date" validate:"required,date"`
	Time     string  `json:"time" validate:"required,clock"`
	Month    string  `json:"month" validate:"omitempty,month"`
	Discount float64 `json:"discount" validate:"gte=0"`
	Internal string  `json:"-" validate:"max=3"`
	NoTag    string  `validate:"max=3"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()
	err := v.Validate(&bookingRequest{
		DoctorID: "6f1c2b7e-0000-4000-8000-000000000001",
		Date:     "2024-06-10",
		Time:     "09:30",
		Month:    "2024-06",
	})
	assert.NoError(t, err)
}

func TestValidate_ListsEveryField(t *testing.T) {
	v := New()
	err := v.Validate(&bookingRequest{
		DoctorID: "nope",
		Date:     "10/06/2024",
		Time:     "9.30",
		Month:    "2024-13",
		Discount: -1,
		NoTag:    "long",
	})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "validation", appErr.Kind())
	assert.Equal(t, map[string]string{
		"doctor_id": "must be a valid UUID",
		"date":      "must be a date in YYYY-MM-DD format",
		"time":      "must be a time in HH:MM format",
		"month":     "must be a month in YYYY-MM format",
		"discount":  "must be greater than or equal to 0",
		"NoTag":     "must not exceed 3",
	}, appErr.Fields)
}

func TestValidate_Required(t *testing.T) {
	err := New().Validate(&bookingRequest{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "is required", appErr.Fields["doctor_id"])
	assert.Equal(t, "is required", appErr.Fields["date"])
}

func TestValidate_NotAStruct(t *testing.T) {
	err := New().Validate("text")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "bad_request", appErr.Kind())
}
