package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateAcceptsDayAndTimestampForms(t *testing.T) {
	for _, input := range []string{
		"2026-04-01",
		"2026-04-01T15:04:05Z",
		"2026-04-01 15:04:05",
	} {
		d, err := ParseDate(input)
		require.NoError(t, err, input)
		assert.Equal(t, "2026-04-01", d.String(), input)
	}

	_, err := ParseDate("April 1st")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.April, 1)
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-04-01"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d))
}

func TestDateJSONNull(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.True(t, d.IsZero())

	raw, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestDateAddDaysCrossesMonths(t *testing.T) {
	d := NewDate(2026, time.January, 30)
	assert.Equal(t, "2026-02-02", d.AddDays(3).String())
	assert.Equal(t, "2025-12-31", d.AddDays(-30).String())
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2026, time.March, 1)
	b := NewDate(2026, time.March, 2)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(NewDate(2026, time.March, 1)))
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	d := DateOf(time.Date(2026, time.March, 5, 23, 59, 1, 0, time.UTC))
	assert.Equal(t, "2026-03-05", d.String())
}
