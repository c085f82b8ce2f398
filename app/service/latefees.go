package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type LateFeeResult struct {
	Success  bool
	Applied  int
	Disabled bool
	Errors   []string
}

// RunApplyLateFees scans overdue charges and appends at most one late fee per
// (subscriber, period). Force reapplies even when a fee already exists.
func (s *BillingService) RunApplyLateFees(ctx context.Context, month string, force bool) (*LateFeeResult, error) {
	today := time.Now().UTC()
	return s.applyLateFees(ctx, month, force, today)
}

func (s *BillingService) applyLateFees(ctx context.Context, month string, force bool, today time.Time) (*LateFeeResult, error) {
	cfg, err := s.LoadBillingConfig(ctx)
	if err != nil {
		return nil, err
	}

	if !cfg.LateFeeEnabled {
		s.logger.Info("Late fees disabled; scan skipped")
		return &LateFeeResult{Success: true, Disabled: true}, nil
	}

	period := strings.TrimSpace(month)
	if period != "" && !validPeriod(period) {
		return nil, ErrInvalidPeriod
	}

	charges, err := s.paymentRepo.ListChargesByStatus(ctx, []int32{entity.PaymentStatusPending, entity.PaymentStatusOverdue}, period)
	if err != nil {
		return nil, err
	}

	result := &LateFeeResult{Errors: []string{}}
	for _, charge := range charges {
		if charge.SubjectRef == nil || charge.Period == nil {
			continue
		}
		subjectRef := *charge.SubjectRef
		chargePeriod := *charge.Period

		deadline, err := periodDeadline(chargePeriod, cfg.PaymentDeadlineDay)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("charge %d: bad period %q", charge.ID, chargePeriod))
			continue
		}

		daysOverdue := daysBetween(deadline, today)
		if daysOverdue <= cfg.LateFeeGraceDays {
			continue
		}

		if !force {
			exists, err := s.lateFeeRepo.ExistsForPeriod(ctx, subjectRef, chargePeriod)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("charge %d: %v", charge.ID, err))
				continue
			}
			if exists {
				continue
			}
		}

		feeCents := computeLateFeeCents(cfg, charge.AmountCents)
		if feeCents <= 0 {
			continue
		}

		paymentID := charge.ID
		fee := &entity.LateFee{
			PaymentID:           &paymentID,
			SubjectRef:          subjectRef,
			Period:              chargePeriod,
			OriginalAmountCents: charge.AmountCents,
			FeeAmountCents:      feeCents,
			FeeType:             cfg.LateFeeType,
			Rate:                cfg.LateFeeValue,
			DaysOverdue:         daysOverdue,
			AppliedAt:           time.Now().UTC(),
		}
		if err := s.lateFeeRepo.Create(ctx, fee); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("charge %d: %v", charge.ID, err))
			continue
		}
		result.Applied++
	}

	result.Success = len(result.Errors) == 0

	s.logger.WithFields(map[string]interface{}{
		"period":  period,
		"applied": result.Applied,
		"errors":  len(result.Errors),
	}).Info("Late fee scan finished")

	return result, nil
}

// ListLateFees returns the fees applied for a billing period, newest first.
func (s *BillingService) ListLateFees(ctx context.Context, month string) ([]*entity.LateFee, error) {
	period := strings.TrimSpace(month)
	if !validPeriod(period) {
		return nil, ErrInvalidPeriod
	}
	return s.lateFeeRepo.ListForPeriod(ctx, period)
}

func computeLateFeeCents(cfg entity.BillingConfig, originalCents int64) int64 {
	switch cfg.LateFeeType {
	case entity.LateFeeTypeFixed:
		// The configured value is a flat currency amount.
		return int64(math.Round(cfg.LateFeeValue * 100))
	default:
		return int64(math.Round(float64(originalCents) * cfg.LateFeeValue / 100))
	}
}
