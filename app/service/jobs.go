package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type OverdueResult struct {
	Marked int
	Errors []string
}

// RunMarkOverdueBatch transitions pending charges past their period deadline
// to Overdue. The grace period only shields from late fees, not from the
// overdue state itself.
func (s *BillingService) RunMarkOverdueBatch(ctx context.Context) (*OverdueResult, error) {
	today := time.Now().UTC()
	return s.markOverdue(ctx, today)
}

func (s *BillingService) markOverdue(ctx context.Context, today time.Time) (*OverdueResult, error) {
	cfg, err := s.LoadBillingConfig(ctx)
	if err != nil {
		return nil, err
	}

	charges, err := s.paymentRepo.ListChargesByStatus(ctx, []int32{entity.PaymentStatusPending}, "")
	if err != nil {
		return nil, err
	}

	result := &OverdueResult{Errors: []string{}}
	for _, charge := range charges {
		if charge.Period == nil {
			continue
		}

		deadline, err := periodDeadline(*charge.Period, cfg.PaymentDeadlineDay)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("charge %d: bad period %q", charge.ID, *charge.Period))
			continue
		}
		if daysBetween(deadline, today) <= 0 {
			continue
		}

		now := time.Now().UTC()
		oldStatus := charge.Status
		charge.Status = entity.PaymentStatusOverdue
		charge.UpdatedAt = now

		if err := s.paymentRepo.Update(ctx, charge); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("charge %d: %v", charge.ID, err))
			continue
		}

		_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
			PaymentID: charge.ID,
			EventType: "charge_overdue",
			OldStatus: &oldStatus,
			NewStatus: charge.Status,
			CreatedAt: now,
		})
		result.Marked++
	}

	return result, nil
}

// RunExpireOrdersBatch drops unresolved correlation records older than the
// configured TTL. Without a TTL the job is an explicit no-op; no retention
// period is assumed.
func (s *BillingService) RunExpireOrdersBatch(ctx context.Context) (int64, error) {
	if s.ordersCfg.TTLDays <= 0 {
		s.logger.Info("Order TTL not configured; expiry skipped")
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.ordersCfg.TTLDays)
	deleted, err := s.orderRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("Expired orders removed")
	}
	return deleted, nil
}
