package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
	"github.com/vegaexperiences/ms-go-billing/app/repository"
)

type listPaymentsRequest interface {
	GetSubjectRef() string
	GetHasStatus() bool
	GetStatus() int32
	GetKind() int32
	GetPeriod() string
	GetLimit() int32
	GetOffset() int32
}

type cancelPaymentRequest interface {
	GetID() uint64
	GetReason() string
}

type linkPaymentRequest interface {
	GetID() uint64
}

func (s *BillingService) GetPayment(ctx context.Context, id uint64) (*entity.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *BillingService) ListPayments(ctx context.Context, req listPaymentsRequest) ([]*entity.Payment, error) {
	limit := req.GetLimit()
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := repository.PaymentFilter{
		SubjectRef: strings.TrimSpace(req.GetSubjectRef()),
		HasStatus:  req.GetHasStatus(),
		Status:     req.GetStatus(),
		Kind:       req.GetKind(),
		Period:     strings.TrimSpace(req.GetPeriod()),
		Limit:      limit,
		Offset:     req.GetOffset(),
	}

	return s.paymentRepo.List(ctx, filter)
}

// CancelPayment is the administrative override. Terminal rows (approved,
// rejected) are never cancelled; the row stays for audit either way.
func (s *BillingService) CancelPayment(ctx context.Context, req cancelPaymentRequest) (*entity.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, req.GetID())
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	if payment.Status == entity.PaymentStatusCancelled {
		return payment, nil
	}
	if entity.TerminalPaymentStatus(payment.Status) {
		return nil, fmt.Errorf("%w: payment status is terminal", ErrInvalidStatus)
	}

	now := time.Now().UTC()
	oldStatus := payment.Status
	payment.Status = entity.PaymentStatusCancelled
	if reason := strings.TrimSpace(req.GetReason()); reason != "" {
		payment.Notes = truncate(reason, 1024)
	}
	payment.UpdatedAt = now

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		if err == repository.ErrPaymentNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID: payment.ID,
		EventType: "payment_cancelled",
		OldStatus: &oldStatus,
		NewStatus: payment.Status,
		CreatedAt: now,
	})

	return payment, nil
}

// LinkPayment attaches an unlinked payment to the subscriber named by its
// pending-subject marker, once staff have confirmed the subscriber.
func (s *BillingService) LinkPayment(ctx context.Context, req linkPaymentRequest) (*entity.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, req.GetID())
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	if payment.SubjectRef != nil {
		return payment, nil
	}

	pendingRef := strings.TrimSpace(payment.Metadata[entity.MetadataPendingSubjectRef])
	if pendingRef == "" {
		return nil, fmt.Errorf("%w: payment carries no pending subject marker", ErrInvalidStatus)
	}

	subscriber, err := s.subscriberRepo.FindByID(ctx, pendingRef)
	if err != nil {
		return nil, err
	}
	if subscriber == nil || !subscriber.Confirmed() {
		return nil, fmt.Errorf("%w: subject %s is not confirmed yet", ErrInvalidStatus, pendingRef)
	}

	now := time.Now().UTC()
	payment.SubjectRef = &subscriber.ID
	delete(payment.Metadata, entity.MetadataPendingSubjectRef)
	payment.UpdatedAt = now

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID: payment.ID,
		EventType: "payment_linked",
		NewStatus: payment.Status,
		CreatedAt: now,
	})

	return payment, nil
}
