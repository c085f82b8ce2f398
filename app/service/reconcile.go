package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
	"github.com/vegaexperiences/ms-go-billing/app/gateway"
	"github.com/vegaexperiences/ms-go-billing/app/repository"
)

type ReconcileOutcome struct {
	Approved   bool
	Attributed bool
	Duplicate  bool
	PaymentID  uint64
}

// HandleGatewayWebhook reconciles a push notification. The raw payload is
// verified and normalized by the gateway integration before any business
// logic runs.
func (s *BillingService) HandleGatewayWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) (*ReconcileOutcome, error) {
	gatewayClient, err := s.gatewayReg.Get(gatewayName)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayNotSupported) {
			return nil, ErrGatewayUnsupported
		}
		return nil, err
	}

	notification, err := gatewayClient.ParseWebhook(payload, signature)
	if err != nil {
		s.persistRejectedNotification(ctx, gatewayClient.Name(), entity.NotificationSourceWebhook, string(payload), err.Error())
		return nil, ErrNotificationRejected
	}

	return s.reconcile(ctx, notification, entity.NotificationSourceWebhook, string(payload))
}

// HandleGatewayReturn reconciles the browser return redirect. It is less
// reliable than the webhook and both can race for the same operation; the
// unique operation key makes the race harmless.
func (s *BillingService) HandleGatewayReturn(ctx context.Context, gatewayName string, params url.Values) (*ReconcileOutcome, error) {
	gatewayClient, err := s.gatewayReg.Get(gatewayName)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayNotSupported) {
			return nil, ErrGatewayUnsupported
		}
		return nil, err
	}

	notification, err := gatewayClient.ParseReturn(params)
	if err != nil {
		s.persistRejectedNotification(ctx, gatewayClient.Name(), entity.NotificationSourceReturn, params.Encode(), err.Error())
		return nil, ErrNotificationRejected
	}

	return s.reconcile(ctx, notification, entity.NotificationSourceReturn, params.Encode())
}

// reconcile converts one normalized notification into at most one ledger
// mutation. Every delivery is persisted with its outcome; denials and
// unattributable notifications are acknowledged without touching the ledger,
// and duplicates are success no-ops.
func (s *BillingService) reconcile(ctx context.Context, notification *gateway.Notification, source int32, rawPayload string) (*ReconcileOutcome, error) {
	if notification.OperationID == "" {
		s.persistRejectedNotification(ctx, notification.Gateway, source, rawPayload, "notification has no operation id")
		return nil, ErrNotificationRejected
	}

	logger := s.logger.WithFields(map[string]interface{}{
		"gateway":      notification.Gateway,
		"operation_id": notification.OperationID,
	})

	if !notification.Approved() {
		logger.Info("Gateway notification denied; nothing to record")
		s.persistNotification(ctx, notification, source, rawPayload, nil, entity.NotificationStatusDenied, "")
		return &ReconcileOutcome{Approved: false}, nil
	}

	orderID := notification.Params[gateway.ParamOrderID]
	var order *entity.Order
	if orderID != "" {
		found, err := s.orderRepo.FindByOrderID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		order = found
	}

	subjectRef := resolveSubjectRef(notification, order, orderID)
	amountCents := resolveAmountCents(notification, order)

	if subjectRef == "" || amountCents <= 0 {
		logger.Warn("Approved notification cannot be attributed; acknowledged without ledger mutation")
		s.persistNotification(ctx, notification, source, rawPayload, nil, entity.NotificationStatusUnattributed, "subject or amount unresolvable")
		return &ReconcileOutcome{Approved: true, Attributed: false}, nil
	}

	subscriber, err := s.subscriberRepo.FindByID(ctx, subjectRef)
	if err != nil {
		return nil, err
	}
	if subscriber == nil {
		logger.WithField("subject_ref", subjectRef).Warn("Subject not found in any subscriber set; acknowledged without ledger mutation")
		s.persistNotification(ctx, notification, source, rawPayload, nil, entity.NotificationStatusUnattributed, "subject not found")
		return &ReconcileOutcome{Approved: true, Attributed: false}, nil
	}

	now := time.Now().UTC()
	operationKey := notification.OperationKey()
	payment := &entity.Payment{
		AmountCents:  amountCents,
		Kind:         resolveKind(notification, order),
		Method:       entity.PaymentMethodGateway,
		Status:       entity.PaymentStatusApproved,
		Gateway:      &notification.Gateway,
		OperationKey: &operationKey,
		OrderID:      normalizeOptionalString(orderID),
		Period:       normalizeOptionalString(notification.Params[gateway.ParamPeriod]),
		PaymentDate:  &now,
		Metadata:     map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if subscriber.Confirmed() {
		payment.SubjectRef = &subscriber.ID
	} else {
		// Unconfirmed subscriber: record the money unlinked and leave the
		// attribution to the staff approval workflow.
		payment.Metadata[entity.MetadataPendingSubjectRef] = subscriber.ID
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyExists) {
			logger.Info("Duplicate delivery for operation key; treated as success")
			existing, findErr := s.paymentRepo.FindByOperationKey(ctx, operationKey)
			var existingID *uint64
			outcome := &ReconcileOutcome{Approved: true, Attributed: true, Duplicate: true}
			if findErr == nil && existing != nil {
				existingID = &existing.ID
				outcome.PaymentID = existing.ID
			}
			s.persistNotification(ctx, notification, source, rawPayload, existingID, entity.NotificationStatusDuplicate, "")
			return outcome, nil
		}
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID:    payment.ID,
		EventType:    "payment_reconciled",
		NewStatus:    payment.Status,
		OperationKey: &operationKey,
		PayloadJSON:  &rawPayload,
		CreatedAt:    now,
	})

	// The order is consumed by its first successful reconciliation.
	if orderID != "" && order != nil {
		if err := s.orderRepo.Delete(ctx, orderID); err != nil {
			logger.WithError(err).Warn("Failed to consume order after reconciliation")
		}
	}

	paymentID := payment.ID
	s.persistNotification(ctx, notification, source, rawPayload, &paymentID, entity.NotificationStatusProcessed, "")

	return &ReconcileOutcome{Approved: true, Attributed: true, PaymentID: payment.ID}, nil
}

func resolveSubjectRef(notification *gateway.Notification, order *entity.Order, orderID string) string {
	if subjectRef := strings.TrimSpace(notification.Params[gateway.ParamSubjectRef]); subjectRef != "" {
		return subjectRef
	}
	if order != nil && order.SubjectRef != nil && strings.TrimSpace(*order.SubjectRef) != "" {
		return strings.TrimSpace(*order.SubjectRef)
	}
	return gateway.SubjectRefFromOrderID(orderID)
}

func resolveAmountCents(notification *gateway.Notification, order *entity.Order) int64 {
	if cents, ok := notification.TotalPaidCents(); ok {
		return cents
	}
	if order != nil && order.AmountCents > 0 {
		return order.AmountCents
	}
	return 0
}

func resolveKind(notification *gateway.Notification, order *entity.Order) int32 {
	switch strings.ToLower(strings.TrimSpace(notification.Params[gateway.ParamKind])) {
	case "enrollment":
		return entity.PaymentKindEnrollment
	case "monthly":
		return entity.PaymentKindMonthly
	case "custom":
		return entity.PaymentKindCustom
	}
	if order != nil && order.Kind > 0 {
		return order.Kind
	}
	return entity.PaymentKindCustom
}

func (s *BillingService) persistNotification(
	ctx context.Context,
	notification *gateway.Notification,
	source int32,
	rawPayload string,
	paymentID *uint64,
	status int32,
	reason string,
) {
	now := time.Now().UTC()
	record := &entity.GatewayNotification{
		PaymentID:   paymentID,
		Gateway:     notification.Gateway,
		OperationID: notification.OperationID,
		Source:      source,
		PayloadJSON: rawPayload,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		trimmed := truncate(reason, 1024)
		record.Error = &trimmed
	}
	if err := s.notificationRepo.Create(ctx, record); err != nil {
		s.logger.WithError(err).WithField("operation_id", notification.OperationID).Warn("Failed to persist gateway notification")
	}
}

func (s *BillingService) persistRejectedNotification(ctx context.Context, gatewayName string, source int32, rawPayload, reason string) {
	now := time.Now().UTC()
	trimmed := truncate(strings.TrimSpace(reason), 1024)
	record := &entity.GatewayNotification{
		Gateway:     gatewayName,
		Source:      source,
		PayloadJSON: rawPayload,
		Status:      entity.NotificationStatusRejected,
		Error:       &trimmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.notificationRepo.Create(ctx, record); err != nil {
		s.logger.WithError(err).Warn("Failed to persist rejected gateway notification")
	}
}
