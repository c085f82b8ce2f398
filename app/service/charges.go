package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type ChargeResult struct {
	Generated      int
	Skipped        int
	SeasonInactive bool
	Errors         []string
}

// RunGenerateCharges creates one Pending charge per billable subscriber for
// the target month. Re-running for the same month only skips; a per-subscriber
// failure is collected and never aborts the batch.
func (s *BillingService) RunGenerateCharges(ctx context.Context, month string, force bool) (*ChargeResult, error) {
	today := time.Now().UTC()
	return s.generateCharges(ctx, month, force, today)
}

func (s *BillingService) generateCharges(ctx context.Context, month string, force bool, today time.Time) (*ChargeResult, error) {
	cfg, err := s.LoadBillingConfig(ctx)
	if err != nil {
		return nil, err
	}

	period := strings.TrimSpace(month)
	if period == "" {
		period = currentPeriod(today)
	}
	if !validPeriod(period) {
		return nil, ErrInvalidPeriod
	}

	// The force flag overrides the season guard only. It never bypasses the
	// per-subscriber duplicate skip; re-billing a month is never safe.
	if !force && !cfg.SeasonActive(today) {
		s.logger.WithField("period", period).Info("Season inactive; charge generation skipped")
		return &ChargeResult{SeasonInactive: true}, nil
	}

	subscribers, err := s.subscriberRepo.ListBillable(ctx)
	if err != nil {
		return nil, err
	}

	result := &ChargeResult{Errors: []string{}}
	for _, subscriber := range subscribers {
		feeCents := cfg.MonthlyFeeDefaultCents
		if subscriber.MonthlyFeeCents != nil && *subscriber.MonthlyFeeCents > 0 {
			feeCents = *subscriber.MonthlyFeeCents
		}
		if feeCents <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("subscriber %s: no monthly fee configured", subscriber.ID))
			continue
		}

		exists, err := s.paymentRepo.ChargeExists(ctx, subscriber.ID, period)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("subscriber %s: %v", subscriber.ID, err))
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		now := time.Now().UTC()
		subjectRef := subscriber.ID
		periodValue := period
		charge := &entity.Payment{
			SubjectRef:  &subjectRef,
			AmountCents: feeCents,
			Kind:        entity.PaymentKindCharge,
			Status:      entity.PaymentStatusPending,
			Period:      &periodValue,
			Metadata:    map[string]string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.paymentRepo.Create(ctx, charge); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("subscriber %s: %v", subscriber.ID, err))
			continue
		}

		_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
			PaymentID: charge.ID,
			EventType: "charge_generated",
			NewStatus: charge.Status,
			CreatedAt: now,
		})
		result.Generated++
	}

	s.logger.WithFields(map[string]interface{}{
		"period":    period,
		"generated": result.Generated,
		"skipped":   result.Skipped,
		"errors":    len(result.Errors),
	}).Info("Charge generation finished")

	return result, nil
}
