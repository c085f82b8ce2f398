package service

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrGatewayUnsupported   = errors.New("gateway is not supported")
	ErrNotificationRejected = errors.New("notification rejected")
)
