package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string", `"3s"`, 3 * time.Second, false},
		{"compound string", `"1m30s"`, 90 * time.Second, false},
		{"nanoseconds", `1000000000`, time.Second, false},
		{"bad string", `"soon"`, 0, true},
		{"bool", `true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"5s"`, string(b))
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)
	got := EndOfDay(in)

	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999999999, time.UTC), got)
	assert.True(t, got.Before(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2024/03/10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDay("2024-03-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Day())

	_, err = ParseDay("10/03/2024", time.UTC)
	require.Error(t, err)

	_, err = ParseDay("2024/13/40", time.UTC)
	require.Error(t, err)
}
