package entity

import "time"

// OrderIDMaxLength is the longest order id the gateways will echo back.
// Checkout pages truncate anything longer, which would break correlation.
const OrderIDMaxLength = 15

// Order is the ephemeral correlation record created before a payment link is
// issued. It maps the externally visible order id back to the billing intent
// so a later gateway notification can be attributed. Overwritten on checkout
// retry, deleted by the expiry job once the configured TTL passes.
type Order struct {
	OrderID string

	SubjectRef  *string
	AmountCents int64
	Kind        int32
	Description string
	ReturnURL   string

	Extra map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}
