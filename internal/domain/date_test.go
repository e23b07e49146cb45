package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-10")
	require.NoError(t, err)
	assert.Equal(t, Date{2026, time.January, 10}, d)
	assert.Equal(t, "2026-01-10", d.String())

	_, err = ParseDate("2026-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDate_AddDays_CrossesMonthAndYear(t *testing.T) {
	d := Date{2025, time.December, 30}
	assert.Equal(t, Date{2026, time.January, 2}, d.AddDays(3))
	assert.Equal(t, Date{2025, time.November, 30}, d.AddDays(-30))
}

func TestDaysInclusive(t *testing.T) {
	start := Date{2026, time.February, 1}
	assert.Equal(t, 28, DaysInclusive(start, Date{2026, time.February, 28}))
	assert.Equal(t, 1, DaysInclusive(start, start))
	assert.Equal(t, 0, DaysInclusive(start, start.AddDays(-1)))
	assert.Equal(t, 3652059, DaysInclusive(Date{1, time.January, 1}, Date{9999, time.December, 31}))
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2026-01-10")))
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10", string(b))

	var zero Date
	b, err = zero.MarshalText()
	require.NoError(t, err)
	require.NoError(t, d.UnmarshalText(b))
	assert.True(t, d.IsZero())
}
