package controller

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vegaexperiences/ms-go-billing/app/factory"
	"github.com/vegaexperiences/ms-go-billing/app/mapper"
	"github.com/vegaexperiences/ms-go-billing/app/service"
	"github.com/vegaexperiences/ms-go-billing/app/types"
)

type BillingController struct {
	billingService *service.BillingService
	logger         logrus.FieldLogger
}

func NewBillingController(billingService *service.BillingService) *BillingController {
	return &BillingController{
		billingService: billingService,
		logger:         factory.NewModuleLogger("billing-controller"),
	}
}

func (c *BillingController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *BillingController) CreateOrder(ctx echo.Context) error {
	req, err := types.NewCreateOrderRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.billingService.CreateOrder(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrGatewayUnsupported):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			c.logger.WithError(err).Error("Create order failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, &types.OrderEnvelopeResponse{
		OrderID:    result.OrderID,
		PaymentURL: result.PaymentURL,
		Registered: result.Registered,
	})
}

func (c *BillingController) GetPayment(ctx echo.Context) error {
	req, err := types.NewGetPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.billingService.GetPayment(ctx.Request().Context(), req.GetID())
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		}
		c.logger.WithError(err).Error("Get payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToResponse(item)})
}

func (c *BillingController) ListPayments(ctx echo.Context) error {
	req, err := types.NewListPaymentsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.billingService.ListPayments(ctx.Request().Context(), req)
	if err != nil {
		c.logger.WithError(err).Error("List payments failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListPaymentsResponse{Payments: mapper.PaymentsToResponse(items)})
}

func (c *BillingController) CancelPayment(ctx echo.Context) error {
	req, err := types.NewCancelPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.billingService.CancelPayment(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrInvalidStatus):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			c.logger.WithError(err).Error("Cancel payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToResponse(item)})
}

func (c *BillingController) LinkPayment(ctx echo.Context) error {
	req, err := types.NewLinkPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.billingService.LinkPayment(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrInvalidStatus):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			c.logger.WithError(err).Error("Link payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToResponse(item)})
}

// HandleGatewayWebhook acknowledges every delivery it could classify with a
// 200, including denials, duplicates and unattributable notifications. Only a
// transient storage failure returns a non-200, which makes the gateway retry.
func (c *BillingController) HandleGatewayWebhook(ctx echo.Context) error {
	gatewayName := strings.ToLower(strings.TrimSpace(ctx.Param("gateway")))
	signature := strings.TrimSpace(ctx.Request().Header.Get("X-Gateway-Signature"))
	if signature == "" {
		signature = strings.TrimSpace(ctx.Request().Header.Get("Auth-Hash"))
	}

	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	outcome, err := c.billingService.HandleGatewayWebhook(ctx.Request().Context(), gatewayName, payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGatewayUnsupported), errors.Is(err, service.ErrNotificationRejected):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			c.logger.WithError(err).Error("Gateway webhook reconciliation failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: ackMessage(outcome)})
}

// HandleGatewayReturn runs the browser redirect through the same reconcile
// path as the webhook; the two race safely on the operation key.
func (c *BillingController) HandleGatewayReturn(ctx echo.Context) error {
	gatewayName := strings.ToLower(strings.TrimSpace(ctx.Param("gateway")))

	params := url.Values{}
	for key, values := range ctx.QueryParams() {
		params[key] = values
	}
	if formParams, err := ctx.FormParams(); err == nil {
		for key, values := range formParams {
			if _, seen := params[key]; !seen {
				params[key] = values
			}
		}
	}

	outcome, err := c.billingService.HandleGatewayReturn(ctx.Request().Context(), gatewayName, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGatewayUnsupported), errors.Is(err, service.ErrNotificationRejected):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			c.logger.WithError(err).Error("Gateway return reconciliation failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: ackMessage(outcome)})
}

func (c *BillingController) RunChargeGeneration(ctx echo.Context) error {
	req, err := types.NewRunBatchRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.billingService.RunGenerateCharges(ctx.Request().Context(), req.Month, req.Force)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		c.logger.WithError(err).Error("Charge generation failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ChargeBatchResponse{
		Generated:      result.Generated,
		Skipped:        result.Skipped,
		SeasonInactive: result.SeasonInactive,
		Errors:         result.Errors,
	})
}

func (c *BillingController) RunLateFees(ctx echo.Context) error {
	req, err := types.NewRunBatchRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.billingService.RunApplyLateFees(ctx.Request().Context(), req.Month, req.Force)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		c.logger.WithError(err).Error("Late fee run failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.LateFeeBatchResponse{
		Success:  result.Success,
		Applied:  result.Applied,
		Disabled: result.Disabled,
		Errors:   result.Errors,
	})
}

func (c *BillingController) ListLateFees(ctx echo.Context) error {
	fees, err := c.billingService.ListLateFees(ctx.Request().Context(), ctx.QueryParam("month"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		c.logger.WithError(err).Error("Late fee listing failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListLateFeesResponse{LateFees: mapper.LateFeesToResponse(fees)})
}

func ackMessage(outcome *service.ReconcileOutcome) string {
	switch {
	case outcome.Duplicate:
		return "Duplicate notification acknowledged"
	case !outcome.Approved:
		return "Denied notification acknowledged"
	case !outcome.Attributed:
		return "Unattributed notification acknowledged"
	default:
		return "Notification processed"
	}
}

func (c *BillingController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
