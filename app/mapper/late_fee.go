package mapper

import (
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
	"github.com/vegaexperiences/ms-go-billing/app/types"
)

func LateFeeToResponse(item *entity.LateFee) *types.LateFee {
	if item == nil {
		return nil
	}

	fee := &types.LateFee{
		ID:                  item.ID,
		SubjectRef:          item.SubjectRef,
		Period:              item.Period,
		OriginalAmountCents: item.OriginalAmountCents,
		FeeAmountCents:      item.FeeAmountCents,
		FeeType:             item.FeeType,
		Rate:                item.Rate,
		DaysOverdue:         item.DaysOverdue,
		AppliedAt:           item.AppliedAt.UTC().Format(time.RFC3339),
	}
	if item.PaymentID != nil {
		fee.PaymentID = *item.PaymentID
	}

	return fee
}

func LateFeesToResponse(items []*entity.LateFee) []*types.LateFee {
	result := make([]*types.LateFee, 0, len(items))
	for _, item := range items {
		result = append(result, LateFeeToResponse(item))
	}
	return result
}
