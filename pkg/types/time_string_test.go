package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid morning", input: "09:30"},
		{name: "valid midnight", input: "00:00"},
		{name: "valid last minute", input: "23:59"},
		{name: "missing leading zero", input: "9:30", wantErr: true},
		{name: "out of range hour", input: "25:00", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestTimeString_MinutesFromMidnight(t *testing.T) {
	tests := []struct {
		input TimeString
		want  int
	}{
		{input: "00:00", want: 0},
		{input: "09:30", want: 570},
		{input: "23:59", want: 1439},
		// "24:00" допустимая граница конца суток
		{input: "24:00", want: 1440},
	}

	for _, tt := range tests {
		t.Run(tt.input.String(), func(t *testing.T) {
			got, err := tt.input.MinutesFromMidnight()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := TimeString("24:30").MinutesFromMidnight()
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	// Недополненная форма отклоняется и на уровне разбора:
	// "9:30" лексикографически сортировалась бы после "10:00"
	_, err = TimeString("9:30").MinutesFromMidnight()
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_AddMinutes(t *testing.T) {
	got, err := TimeString("09:30").AddMinutes(45)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:15"), got)

	// Ровно конец суток представляется как 24:00
	got, err = TimeString("23:00").AddMinutes(60)
	require.NoError(t, err)
	assert.Equal(t, TimeString("24:00"), got)

	_, err = TimeString("23:30").AddMinutes(60)
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	_, err = TimeString("00:30").AddMinutes(-60)
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_OnDate(t *testing.T) {
	date := time.Date(2026, 3, 10, 15, 42, 7, 0, time.UTC)

	got, err := TimeString("09:30").OnDate(date, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), got)

	// 24:00 дает полночь следующего дня
	got, err = TimeString("24:00").OnDate(date, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), got)
}

func TestTimeString_JSON(t *testing.T) {
	data, err := json.Marshal(TimeString("10:00"))
	require.NoError(t, err)
	assert.Equal(t, `"10:00"`, string(data))

	var parsed TimeString
	require.NoError(t, json.Unmarshal([]byte(`"18:45"`), &parsed))
	assert.Equal(t, TimeString("18:45"), parsed)

	err = json.Unmarshal([]byte(`"bad"`), &parsed)
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}
