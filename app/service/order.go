package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vegaexperiences/ms-go-billing/app/entity"
	"github.com/vegaexperiences/ms-go-billing/app/gateway"
)

type createOrderRequest interface {
	GetOrderID() string
	GetGateway() string
	GetAmountCents() int64
	GetDescription() string
	GetReturnURL() string
	GetSubjectRef() string
	GetKind() int32
	GetExtra() map[string]string
}

type CreateOrderResult struct {
	OrderID    string
	PaymentURL string
	// Registered is false when the correlation record could not be stored.
	// The payment link is still valid; a later notification for it will be
	// attributed only through the echoed parameters.
	Registered bool
}

// CreateOrder validates the billing intent, builds the hosted checkout URL
// and stores the correlation record. Storing is best-effort: issuing the
// payment link never fails because the registry is down, but the miss is
// logged loudly since the payment may come back unattributed.
func (s *BillingService) CreateOrder(ctx context.Context, req createOrderRequest) (*CreateOrderResult, error) {
	amount := req.GetAmountCents()
	if amount < s.ordersCfg.MinAmountCents {
		return nil, ErrInvalidRequest
	}
	if strings.TrimSpace(req.GetDescription()) == "" {
		return nil, ErrInvalidRequest
	}

	orderID := strings.TrimSpace(req.GetOrderID())
	if orderID == "" {
		orderID = newOrderID()
	}
	if len(orderID) > entity.OrderIDMaxLength {
		return nil, ErrInvalidRequest
	}

	gatewayClient, err := s.gatewayReg.Get(req.GetGateway())
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayNotSupported) {
			return nil, ErrGatewayUnsupported
		}
		return nil, err
	}

	now := time.Now().UTC()
	order := &entity.Order{
		OrderID:     orderID,
		SubjectRef:  normalizeOptionalString(req.GetSubjectRef()),
		AmountCents: amount,
		Kind:        req.GetKind(),
		Description: strings.TrimSpace(req.GetDescription()),
		ReturnURL:   strings.TrimSpace(req.GetReturnURL()),
		Extra:       req.GetExtra(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	paymentURL, err := gatewayClient.CheckoutURL(order)
	if err != nil {
		return nil, err
	}

	registered := true
	if err := s.orderRepo.Put(ctx, order); err != nil {
		registered = false
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"order_id": orderID,
			"gateway":  gatewayClient.Name(),
		}).Error("Order registry put failed; payment will be unattributed unless echoed params resolve it")
	}

	return &CreateOrderResult{
		OrderID:    orderID,
		PaymentURL: paymentURL,
		Registered: registered,
	}, nil
}

func (s *BillingService) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	order, err := s.orderRepo.FindByOrderID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// newOrderID mints a gateway-safe random id within the truncation limit.
func newOrderID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:entity.OrderIDMaxLength]
}
