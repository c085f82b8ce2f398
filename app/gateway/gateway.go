package gateway

import (
	"net/url"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

// Canonical keys for the merchant parameters echoed back by both gateways.
// Normalization maps gateway-specific field names onto these; nothing past
// the gateway package ever sees a raw gateway field.
const (
	ParamOrderID    = "order_id"
	ParamSubjectRef = "subject_ref"
	ParamKind       = "kind"
	ParamAmount     = "amount"
	ParamPeriod     = "period"
)

// Gateway is one hosted-payment-page integration. Checkout URLs are built
// locally from signed query parameters; notifications arrive either as a
// server-to-server webhook (JSON, signed) or as the browser return redirect
// (query/form parameters, unsigned and less reliable).
type Gateway interface {
	Name() string
	CheckoutURL(order *entity.Order) (string, error)
	ParseWebhook(payload []byte, signature string) (*Notification, error)
	ParseReturn(params url.Values) (*Notification, error)
}
