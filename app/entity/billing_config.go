package entity

import "time"

// BillingConfig is the per-run snapshot of the settings table. Batch jobs load
// it once at the start of a run and pass it by value; it is never re-read
// mid-run.
type BillingConfig struct {
	LateFeeEnabled     bool
	LateFeeType        int32
	LateFeeValue       float64
	LateFeeGraceDays   int32
	PaymentDeadlineDay int32

	SeasonStart *time.Time
	SeasonEnd   *time.Time

	MonthlyFeeDefaultCents int64
}

// SeasonActive reports whether the given date falls inside the configured
// season window. An unset window is unrestricted.
func (c BillingConfig) SeasonActive(at time.Time) bool {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	if c.SeasonStart != nil && day.Before(*c.SeasonStart) {
		return false
	}
	if c.SeasonEnd != nil && day.After(*c.SeasonEnd) {
		return false
	}
	return true
}
