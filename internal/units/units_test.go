package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected System
		wantErr  bool
	}{
		{in: "meters", expected: Meters},
		{in: "m", expected: Meters},
		{in: "feet", expected: Feet},
		{in: "ft", expected: Feet},
		{in: "furlongs", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvert(t *testing.T) {
	assert.InDelta(t, 32.8084, Convert(10, Meters, Feet), 1e-9)
	assert.InDelta(t, 10, Convert(32.8084, Feet, Meters), 1e-9)
	assert.Equal(t, 42.0, Convert(42, Meters, Meters))
}

func TestConvert_RoundTrip(t *testing.T) {
	original := 123.456
	back := Convert(Convert(original, Meters, Feet), Feet, Meters)
	assert.InDelta(t, original, back, 1e-6)
}
