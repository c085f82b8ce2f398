package entity

import "time"

const (
	PaymentKindEnrollment int32 = 1
	PaymentKindMonthly    int32 = 2
	PaymentKindCustom     int32 = 3
	PaymentKindCharge     int32 = 4
)

const (
	PaymentMethodGateway  int32 = 1
	PaymentMethodCash     int32 = 2
	PaymentMethodTransfer int32 = 3
)

const (
	PaymentStatusPending   int32 = 1
	PaymentStatusApproved  int32 = 2
	PaymentStatusRejected  int32 = 3
	PaymentStatusCancelled int32 = 4
	PaymentStatusOverdue   int32 = 5
)

// MetadataPendingSubjectRef carries the unconfirmed subscriber id on payments
// reconciled before staff approved the subscriber. The payment stays unlinked
// (SubjectRef nil) until an administrative link attaches it.
const MetadataPendingSubjectRef = "pending_subject_ref"

type Payment struct {
	ID uint64

	SubjectRef *string

	AmountCents int64
	Kind        int32
	Method      int32
	Status      int32

	Gateway *string

	// OperationKey is the reconciliation correlation key
	// "{gateway}:{operationId}". Unique in the ledger when set.
	OperationKey *string
	OrderID      *string

	Period      *string
	PaymentDate *time.Time

	Notes    string
	Metadata map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func TerminalPaymentStatus(status int32) bool {
	switch status {
	case PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}
