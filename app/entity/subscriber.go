package entity

import "time"

const (
	SubscriberStatusPending     int32 = 1
	SubscriberStatusActive      int32 = 2
	SubscriberStatusInactive    int32 = 3
	SubscriberStatusScholarship int32 = 4
)

// Subscriber is a read-only view over the enrollment system's table. The
// billing core never writes it; it only needs status, the custom fee override
// and the enrollment date.
type Subscriber struct {
	ID     string
	Name   string
	Status int32

	// MonthlyFeeCents overrides the configured default when set.
	MonthlyFeeCents *int64

	EnrolledAt time.Time
}

// Confirmed reports whether staff have approved the subscriber. Payments for
// unconfirmed subscribers are recorded unlinked.
func (s *Subscriber) Confirmed() bool {
	return s.Status != SubscriberStatusPending
}
