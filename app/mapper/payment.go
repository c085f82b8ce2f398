package mapper

import (
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
	"github.com/vegaexperiences/ms-go-billing/app/types"
)

func PaymentToResponse(item *entity.Payment) *types.Payment {
	if item == nil {
		return nil
	}

	payment := &types.Payment{
		ID:           item.ID,
		SubjectRef:   derefString(item.SubjectRef),
		AmountCents:  item.AmountCents,
		Kind:         item.Kind,
		Method:       item.Method,
		Status:       item.Status,
		Gateway:      derefString(item.Gateway),
		OperationKey: derefString(item.OperationKey),
		OrderID:      derefString(item.OrderID),
		Period:       derefString(item.Period),
		Notes:        item.Notes,
		Metadata:     cloneMetadata(item.Metadata),
		CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.PaymentDate != nil {
		payment.PaymentDate = item.PaymentDate.UTC().Format(time.RFC3339)
	}

	return payment
}

func PaymentsToResponse(items []*entity.Payment) []*types.Payment {
	result := make([]*types.Payment, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToResponse(item))
	}
	return result
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return map[string]string{}
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
