package payment

import (
	"fmt"
	"time"

	"rental-backend/internal/apperr"
)

const (
	MinDueDay = 1
	MaxDueDay = 31
)

// CivilDate truncates t to its calendar date in loc and returns that date at
// UTC midnight, the form every date column is stored in.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ValidateDueDay(dueDay int) error {
	if dueDay < MinDueDay || dueDay > MaxDueDay {
		return apperr.Validation("due day must be between %d and %d, got %d", MinDueDay, MaxDueDay, dueDay)
	}
	return nil
}

// daysIn returns the number of days of month m in year y.
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueDateIn places dueDay in the given month. Days past the end of a short
// month land on its last day.
func DueDateIn(y int, m time.Month, dueDay int) time.Time {
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	day := min(dueDay, daysIn(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// NextDueDate is the first due date strictly after today: this month's due
// day if it has not arrived yet, otherwise next month's.
func NextDueDate(today time.Time, dueDay int) (time.Time, error) {
	if err := ValidateDueDay(dueDay); err != nil {
		return time.Time{}, err
	}
	y, m, _ := today.Date()
	candidate := DueDateIn(y, m, dueDay)
	if !candidate.After(today) {
		candidate = DueDateIn(y, m+1, dueDay)
	}
	return candidate, nil
}

// MonthBounds returns the first day of d's month and the first day of the
// following one.
func MonthBounds(d time.Time) (from, to time.Time) {
	from = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Description labels a payment, e.g. "Rent Apt 101 - 02/2024".
func Description(propertyName string, due time.Time) string {
	return fmt.Sprintf("Rent %s - %02d/%d", propertyName, int(due.Month()), due.Year())
}
