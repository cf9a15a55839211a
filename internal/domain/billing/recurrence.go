package billing

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
)

// NextDueDate advances a due date by one recurrence unit.
//
// Weekly adds exactly 7 days. Monthly and yearly advance the calendar month
// or year and clamp the day-of-month to the last valid day of the target
// month, so Jan 31 + 1 month is Feb 28 (Feb 29 in leap years), never Mar 3.
func NextDueDate(due time.Time, unit RecurrenceUnit) time.Time {
	return AdvanceBy(due, unit, 1)
}

// AdvanceBy advances a due date by n recurrence units. n = 0 returns the
// date unchanged, which is what upfront installment generation relies on
// for the first installment.
func AdvanceBy(due time.Time, unit RecurrenceUnit, n int) time.Time {
	if n == 0 {
		return due
	}
	switch unit {
	case RecurrenceWeekly:
		return due.AddDate(0, 0, 7*n)
	case RecurrenceMonthly:
		return addMonthsClamped(due, n)
	case RecurrenceYearly:
		return addMonthsClamped(due, 12*n)
	default:
		return due
	}
}

// InstallmentDueDates returns the due dates of an upfront installment set:
// the base date followed by count-1 advances of one unit each.
func InstallmentDueDates(base time.Time, unit RecurrenceUnit, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment count must be positive")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_RECURRENCE", "Recurrence unit is not valid")
	}

	dates := make([]time.Time, count)
	for i := 0; i < count; i++ {
		dates[i] = AdvanceBy(base, unit, i)
	}
	return dates, nil
}

// addMonthsClamped adds calendar months keeping the day-of-month, clamped to
// the last valid day of the target month.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	// Normalize the target year/month first, independent of the day.
	m := int(month) - 1 + months
	targetYear := year + m/12
	targetMonth := time.Month(m%12 + 1)
	if m < 0 {
		// Go's integer division truncates toward zero; fix up negatives.
		mm := ((m % 12) + 12) % 12
		targetYear = year + (m-mm)/12
		targetMonth = time.Month(mm + 1)
	}

	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}

	return time.Date(targetYear, targetMonth, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
