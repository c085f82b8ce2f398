package entity

import "time"

const (
	LateFeeTypePercentage int32 = 1
	LateFeeTypeFixed      int32 = 2
)

// LateFee rows are immutable once created. At most one exists per
// (SubjectRef, Period) unless a force reapply created another.
type LateFee struct {
	ID uint64

	PaymentID  *uint64
	SubjectRef string
	Period     string

	OriginalAmountCents int64
	FeeAmountCents      int64
	FeeType             int32
	Rate                float64
	DaysOverdue         int32

	AppliedAt time.Time
}
