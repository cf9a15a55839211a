package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate_Weekly(t *testing.T) {
	got := NextDueDate(date(2026, 3, 10), RecurrenceWeekly)
	assert.Equal(t, date(2026, 3, 17), got)

	// Crosses a month boundary without any clamping logic
	got = NextDueDate(date(2026, 1, 28), RecurrenceWeekly)
	assert.Equal(t, date(2026, 2, 4), got)
}

func TestNextDueDate_Monthly(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		want time.Time
	}{
		{"mid-month keeps the day", date(2026, 3, 10), date(2026, 4, 10)},
		{"Jan 31 clamps to Feb 28", date(2026, 1, 31), date(2026, 2, 28)},
		{"Jan 31 clamps to Feb 29 in leap years", date(2028, 1, 31), date(2028, 2, 29)},
		{"Jan 30 also clamps in February", date(2026, 1, 30), date(2026, 2, 28)},
		{"Mar 31 clamps to Apr 30", date(2026, 3, 31), date(2026, 4, 30)},
		{"Dec rolls over the year", date(2026, 12, 15), date(2027, 1, 15)},
		{"clamped date does not stick to month end", date(2026, 2, 28), date(2026, 3, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDueDate(tt.due, RecurrenceMonthly))
		})
	}
}

func TestNextDueDate_Yearly(t *testing.T) {
	assert.Equal(t, date(2027, 6, 15), NextDueDate(date(2026, 6, 15), RecurrenceYearly))

	// Feb 29 on a leap year clamps to Feb 28 the next year
	assert.Equal(t, date(2029, 2, 28), NextDueDate(date(2028, 2, 29), RecurrenceYearly))
}

func TestNextDueDate_PreservesTimeAndLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	due := time.Date(2026, 1, 31, 14, 30, 0, 0, loc)

	got := NextDueDate(due, RecurrenceMonthly)

	assert.Equal(t, time.Date(2026, 2, 28, 14, 30, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestAdvanceBy(t *testing.T) {
	base := date(2026, 1, 31)

	assert.Equal(t, base, AdvanceBy(base, RecurrenceMonthly, 0))
	assert.Equal(t, date(2026, 2, 28), AdvanceBy(base, RecurrenceMonthly, 1))
	assert.Equal(t, date(2026, 3, 31), AdvanceBy(base, RecurrenceMonthly, 2))
	assert.Equal(t, date(2026, 4, 30), AdvanceBy(base, RecurrenceMonthly, 3))
	assert.Equal(t, date(2025, 12, 31), AdvanceBy(base, RecurrenceMonthly, -1))
	assert.Equal(t, date(2026, 2, 14), AdvanceBy(date(2026, 1, 31), RecurrenceWeekly, 2))
	assert.Equal(t, date(2028, 1, 31), AdvanceBy(base, RecurrenceYearly, 2))
}

func TestInstallmentDueDates(t *testing.T) {
	dates, err := InstallmentDueDates(date(2026, 1, 31), RecurrenceMonthly, 4)

	require.NoError(t, err)
	require.Len(t, dates, 4)
	assert.Equal(t, date(2026, 1, 31), dates[0])
	assert.Equal(t, date(2026, 2, 28), dates[1])
	// Each step advances from the base, not the clamped predecessor
	assert.Equal(t, date(2026, 3, 31), dates[2])
	assert.Equal(t, date(2026, 4, 30), dates[3])
}

func TestInstallmentDueDates_Weekly(t *testing.T) {
	dates, err := InstallmentDueDates(date(2026, 3, 2), RecurrenceWeekly, 3)

	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2026, 3, 2), date(2026, 3, 9), date(2026, 3, 16)}, dates)
}

func TestInstallmentDueDates_Invalid(t *testing.T) {
	_, err := InstallmentDueDates(date(2026, 3, 2), RecurrenceMonthly, 0)
	require.Error(t, err)

	_, err = InstallmentDueDates(date(2026, 3, 2), "DAILY", 3)
	require.Error(t, err)
}
