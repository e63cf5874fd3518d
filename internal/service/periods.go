package service

import (
	"time"

	"stokledger/internal/model"
)

// MonthRange resolves a "YYYY-MM" report month to the half-open interval
// [first day of month, first day of next month).
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(model.MonthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, validationErrorf("month must be in YYYY-MM format")
	}
	return start, start.AddDate(0, 1, 0), nil
}
