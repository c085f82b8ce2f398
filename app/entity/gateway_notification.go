package entity

import "time"

const (
	NotificationSourceWebhook int32 = 1
	NotificationSourceReturn  int32 = 2
)

const (
	NotificationStatusProcessed    int32 = 10
	NotificationStatusDuplicate    int32 = 11
	NotificationStatusUnattributed int32 = 12
	NotificationStatusDenied       int32 = 13
	NotificationStatusRejected     int32 = 20
)

// GatewayNotification persists every delivery attempt from a gateway,
// whatever the outcome. The ledger is append-only; this table is the audit
// trail that explains why a given delivery did or did not become a Payment.
type GatewayNotification struct {
	ID uint64

	PaymentID *uint64

	Gateway     string
	OperationID string
	Source      int32
	PayloadJSON string
	Status      int32
	Error       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
