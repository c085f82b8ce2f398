package types

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

func TestNewCreateOrderRequestFromContextNormalizes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("POST", "/orders", bytes.NewBufferString(`{"order_id":" custom-99 ","gateway":" Azul ","amount_cents":5000,"description":" Tournament fee ","kind":"Monthly"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	parsed, err := NewCreateOrderRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.OrderID != "custom-99" {
		t.Fatalf("expected trimmed order id, got %q", parsed.OrderID)
	}
	if parsed.Gateway != "azul" {
		t.Fatalf("expected lower-cased gateway, got %q", parsed.Gateway)
	}
	if parsed.GetKind() != entity.PaymentKindMonthly {
		t.Fatalf("expected monthly kind, got %d", parsed.GetKind())
	}
}

func TestCreateOrderValidate(t *testing.T) {
	req := &CreateOrderRequest{}
	if err := req.Validate(); err == nil {
		t.Fatal("expected amount validation error")
	}

	req = &CreateOrderRequest{AmountCents: 5000, Description: "Tournament fee", Gateway: "azul"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req.OrderID = "this-order-id-is-way-too-long"
	if err := req.Validate(); err == nil {
		t.Fatal("expected order id length validation error")
	}

	req.OrderID = "custom-99"
	req.Kind = "weekly"
	if err := req.Validate(); err == nil {
		t.Fatal("expected kind validation error")
	}
}

func TestCreateOrderGetExtraNeverNil(t *testing.T) {
	req := &CreateOrderRequest{}
	if req.GetExtra() == nil {
		t.Fatal("expected non-nil extra map")
	}
}

func TestNewListPaymentsRequestFromContextAndValidate(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/payments?subject_ref=sub-1&status=5&kind=4&period=2026-08&limit=20&offset=3", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	parsed, err := NewListPaymentsRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !parsed.GetHasStatus() || parsed.GetStatus() != entity.PaymentStatusOverdue {
		t.Fatalf("unexpected status parse: %+v", parsed)
	}
	if parsed.GetKind() != entity.PaymentKindCharge || parsed.GetPeriod() != "2026-08" {
		t.Fatalf("unexpected filter parse: %+v", parsed)
	}
	if err := parsed.Validate(); err != nil {
		t.Fatalf("expected valid list request, got %v", err)
	}
}

func TestListPaymentsValidateDefaultLimit(t *testing.T) {
	req := &ListPaymentsRequest{}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected zero-values request to apply default limit, got %v", err)
	}
	if req.GetLimit() != 100 {
		t.Fatalf("expected default limit 100, got %d", req.GetLimit())
	}
}

func TestListPaymentsValidateRejectsBadValues(t *testing.T) {
	req := &ListPaymentsRequest{Limit: 501}
	if err := req.Validate(); err == nil {
		t.Fatal("expected limit validation error")
	}

	req = &ListPaymentsRequest{HasStatus: true, Status: 99}
	if err := req.Validate(); err == nil {
		t.Fatal("expected status validation error")
	}

	req = &ListPaymentsRequest{Period: "August 2026"}
	if err := req.Validate(); err == nil {
		t.Fatal("expected period validation error")
	}
}

func TestNewCancelPaymentRequestFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("POST", "/payments/12/cancel", bytes.NewBufferString(`{"reason":" duplicate "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("12")

	parsed, err := NewCancelPaymentRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.GetID() != 12 || parsed.GetReason() != "duplicate" {
		t.Fatalf("unexpected parsed cancel request: %+v", parsed)
	}
}

func TestNewRunBatchRequestFromContextEmptyBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("POST", "/jobs/charges/generate", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	parsed, err := NewRunBatchRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected empty body to parse, got %v", err)
	}
	if parsed.Month != "" || parsed.Force {
		t.Fatalf("expected zero-value request, got %+v", parsed)
	}
	if err := parsed.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestRunBatchValidateMonth(t *testing.T) {
	req := &RunBatchRequest{Month: "2026-13"}
	if err := req.Validate(); err == nil {
		t.Fatal("expected month validation error")
	}

	req.Month = "2026-08"
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid month, got %v", err)
	}
}
