package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateOrderRequest struct {
	OrderID     string            `json:"order_id"`
	Gateway     string            `json:"gateway"`
	AmountCents int64             `json:"amount_cents"`
	Description string            `json:"description"`
	ReturnURL   string            `json:"return_url"`
	SubjectRef  string            `json:"subject_ref"`
	Kind        string            `json:"kind"`
	Extra       map[string]string `json:"extra"`
}

func NewCreateOrderRequestFromContext(ctx echo.Context) (*CreateOrderRequest, error) {
	var body CreateOrderRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.OrderID = strings.TrimSpace(body.OrderID)
	body.Gateway = strings.ToLower(strings.TrimSpace(body.Gateway))
	body.Description = strings.TrimSpace(body.Description)
	body.ReturnURL = strings.TrimSpace(body.ReturnURL)
	body.SubjectRef = strings.TrimSpace(body.SubjectRef)
	body.Kind = strings.ToLower(strings.TrimSpace(body.Kind))

	return &body, nil
}

func (r *CreateOrderRequest) Validate() error {
	if r.AmountCents <= 0 {
		return errors.New("amount_cents must be > 0")
	}
	if r.Description == "" {
		return errors.New("description is required")
	}
	if len(r.OrderID) > entity.OrderIDMaxLength {
		return errors.New("order_id must be at most 15 characters")
	}
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	switch r.Kind {
	case "", "enrollment", "monthly", "custom":
	default:
		return errors.New("kind must be enrollment, monthly, or custom")
	}
	return nil
}

func (r *CreateOrderRequest) GetOrderID() string     { return r.OrderID }
func (r *CreateOrderRequest) GetGateway() string     { return r.Gateway }
func (r *CreateOrderRequest) GetAmountCents() int64  { return r.AmountCents }
func (r *CreateOrderRequest) GetDescription() string { return r.Description }
func (r *CreateOrderRequest) GetReturnURL() string   { return r.ReturnURL }
func (r *CreateOrderRequest) GetSubjectRef() string  { return r.SubjectRef }

func (r *CreateOrderRequest) GetKind() int32 {
	switch r.Kind {
	case "enrollment":
		return entity.PaymentKindEnrollment
	case "monthly":
		return entity.PaymentKindMonthly
	default:
		return entity.PaymentKindCustom
	}
}

func (r *CreateOrderRequest) GetExtra() map[string]string {
	if r.Extra == nil {
		return map[string]string{}
	}
	return r.Extra
}

type GetPaymentRequest struct {
	ID uint64
}

func NewGetPaymentRequestFromContext(ctx echo.Context) (*GetPaymentRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetPaymentRequest{ID: id}, nil
}

func (r *GetPaymentRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid payment id")
	}
	return nil
}

func (r *GetPaymentRequest) GetID() uint64 { return r.ID }

type ListPaymentsRequest struct {
	SubjectRef string
	HasStatus  bool
	Status     int32
	Kind       int32
	Period     string
	Limit      int32
	Offset     int32
}

func NewListPaymentsRequestFromContext(ctx echo.Context) (*ListPaymentsRequest, error) {
	req := &ListPaymentsRequest{
		SubjectRef: strings.TrimSpace(ctx.QueryParam("subject_ref")),
		Period:     strings.TrimSpace(ctx.QueryParam("period")),
		Limit:      100,
		Offset:     0,
	}

	if statusRaw := strings.TrimSpace(ctx.QueryParam("status")); statusRaw != "" {
		status, err := strconv.ParseInt(statusRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.HasStatus = true
		req.Status = int32(status)
	}

	if kindRaw := strings.TrimSpace(ctx.QueryParam("kind")); kindRaw != "" {
		kind, err := strconv.ParseInt(kindRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Kind = int32(kind)
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListPaymentsRequest) Validate() error {
	if r.Limit == 0 {
		r.Limit = 100
	}
	if r.Limit <= 0 || r.Limit > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return errors.New("offset must be >= 0")
	}
	if r.HasStatus && !isValidPaymentStatus(r.Status) {
		return errors.New("invalid status")
	}
	if r.Kind < 0 || r.Kind > entity.PaymentKindCharge {
		return errors.New("invalid kind")
	}
	if r.Period != "" && !isValidPeriod(r.Period) {
		return errors.New("period must be YYYY-MM")
	}
	return nil
}

func (r *ListPaymentsRequest) GetSubjectRef() string { return r.SubjectRef }
func (r *ListPaymentsRequest) GetHasStatus() bool    { return r.HasStatus }
func (r *ListPaymentsRequest) GetStatus() int32      { return r.Status }
func (r *ListPaymentsRequest) GetKind() int32        { return r.Kind }
func (r *ListPaymentsRequest) GetPeriod() string     { return r.Period }
func (r *ListPaymentsRequest) GetLimit() int32       { return r.Limit }
func (r *ListPaymentsRequest) GetOffset() int32      { return r.Offset }

type CancelPaymentRequest struct {
	ID     uint64 `json:"-"`
	Reason string `json:"reason"`
}

func NewCancelPaymentRequestFromContext(ctx echo.Context) (*CancelPaymentRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body CancelPaymentRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.ID = id
	body.Reason = strings.TrimSpace(body.Reason)

	return &body, nil
}

func (r *CancelPaymentRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid payment id")
	}
	return nil
}

func (r *CancelPaymentRequest) GetID() uint64     { return r.ID }
func (r *CancelPaymentRequest) GetReason() string { return r.Reason }

type LinkPaymentRequest struct {
	ID uint64
}

func NewLinkPaymentRequestFromContext(ctx echo.Context) (*LinkPaymentRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &LinkPaymentRequest{ID: id}, nil
}

func (r *LinkPaymentRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid payment id")
	}
	return nil
}

func (r *LinkPaymentRequest) GetID() uint64 { return r.ID }

type RunBatchRequest struct {
	Month string `json:"month"`
	Force bool   `json:"force"`
}

func NewRunBatchRequestFromContext(ctx echo.Context) (*RunBatchRequest, error) {
	var body RunBatchRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.Month = strings.TrimSpace(body.Month)
	return &body, nil
}

func (r *RunBatchRequest) Validate() error {
	if r.Month != "" && !isValidPeriod(r.Month) {
		return errors.New("month must be YYYY-MM")
	}
	return nil
}

type Payment struct {
	ID           uint64            `json:"id"`
	SubjectRef   string            `json:"subject_ref,omitempty"`
	AmountCents  int64             `json:"amount_cents"`
	Kind         int32             `json:"kind"`
	Method       int32             `json:"method"`
	Status       int32             `json:"status"`
	Gateway      string            `json:"gateway,omitempty"`
	OperationKey string            `json:"operation_key,omitempty"`
	OrderID      string            `json:"order_id,omitempty"`
	Period       string            `json:"period,omitempty"`
	PaymentDate  string            `json:"payment_date,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Metadata     map[string]string `json:"metadata"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

type PaymentEnvelopeResponse struct {
	Payment *Payment `json:"payment"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type OrderEnvelopeResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
	Registered bool   `json:"registered"`
}

type ChargeBatchResponse struct {
	Generated      int      `json:"generated"`
	Skipped        int      `json:"skipped"`
	SeasonInactive bool     `json:"season_inactive"`
	Errors         []string `json:"errors"`
}

type LateFeeBatchResponse struct {
	Success  bool     `json:"success"`
	Applied  int      `json:"applied"`
	Disabled bool     `json:"disabled"`
	Errors   []string `json:"errors"`
}

type LateFee struct {
	ID                  uint64  `json:"id"`
	PaymentID           uint64  `json:"payment_id,omitempty"`
	SubjectRef          string  `json:"subject_ref"`
	Period              string  `json:"period"`
	OriginalAmountCents int64   `json:"original_amount_cents"`
	FeeAmountCents      int64   `json:"fee_amount_cents"`
	FeeType             int32   `json:"fee_type"`
	Rate                float64 `json:"rate"`
	DaysOverdue         int32   `json:"days_overdue"`
	AppliedAt           string  `json:"applied_at"`
}

type ListLateFeesResponse struct {
	LateFees []*LateFee `json:"late_fees"`
}

func isValidPaymentStatus(status int32) bool {
	switch status {
	case entity.PaymentStatusPending,
		entity.PaymentStatusApproved,
		entity.PaymentStatusRejected,
		entity.PaymentStatusCancelled,
		entity.PaymentStatusOverdue:
		return true
	default:
		return false
	}
}

func isValidPeriod(period string) bool {
	if len(period) != 7 || period[4] != '-' {
		return false
	}
	year, err := strconv.Atoi(period[:4])
	if err != nil || year < 2000 {
		return false
	}
	month, err := strconv.Atoi(period[5:])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	return true
}
