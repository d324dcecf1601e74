package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalAmount(t *testing.T) {
	tests := []struct {
		name     string
		cost     float64
		discount float64
		want     float64
	}{
		{"flat discount", 100, 30, 70},
		{"discount above cost clamps to zero", 10, 50, 0},
		{"consultation with discount", 200, 25, 175},
		{"no discount", 80, 0, 80},
		{"free service", 0, 0, 0},
		{"rounds to cents", 10.006, 0, 10.01},
		{"fractional discount", 99.99, 0.333, 99.66},
		{"half cent rounds up", 1.005, 0, 1.01},
		{"half cent after discount", 1.025, 0.01, 1.02},
		{"half cent 1.015", 1.015, 0, 1.02},
		{"half cent 2.675", 2.675, 0, 2.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FinalAmount(tt.cost, tt.discount), 1e-9)
		})
	}
}
