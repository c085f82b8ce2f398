package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type AzulConfig struct {
	MerchantID     string
	AuthKey        string
	PaymentPageURL string
}

// AzulGateway integrates the Azul hosted payment page. The page is driven by
// signed query parameters; webhooks arrive as JSON signed with an HMAC-SHA256
// hex digest of the raw body in the Auth-Hash header.
type AzulGateway struct {
	cfg AzulConfig
}

func NewAzulGateway(cfg AzulConfig) *AzulGateway {
	return &AzulGateway{cfg: cfg}
}

func (g *AzulGateway) Name() string {
	return "azul"
}

func (g *AzulGateway) CheckoutURL(order *entity.Order) (string, error) {
	if strings.TrimSpace(g.cfg.PaymentPageURL) == "" {
		return "", errors.New("azul payment page url is not configured")
	}
	if strings.TrimSpace(g.cfg.MerchantID) == "" {
		return "", errors.New("azul merchant id is not configured")
	}

	values := url.Values{}
	values.Set("MerchantId", g.cfg.MerchantID)
	values.Set("OrderNumber", order.OrderID)
	values.Set("Amount", FormatAmountCents(order.AmountCents))
	values.Set("Description", order.Description)
	if strings.TrimSpace(order.ReturnURL) != "" {
		values.Set("ApprovedUrl", order.ReturnURL)
		values.Set("DeclinedUrl", order.ReturnURL)
	}
	for key, value := range checkoutParams(order) {
		values.Set(key, value)
	}
	values.Set("AuthHash", g.signCheckout(order))

	return strings.TrimRight(g.cfg.PaymentPageURL, "/") + "?" + values.Encode(), nil
}

func (g *AzulGateway) ParseWebhook(payload []byte, signature string) (*Notification, error) {
	if !verifyHexHMAC(payload, signature, g.cfg.AuthKey) {
		return nil, errors.New("invalid azul signature")
	}

	var body struct {
		AzulOrderID     string            `json:"AzulOrderId"`
		IsoCode         string            `json:"IsoCode"`
		ResponseMessage string            `json:"ResponseMessage"`
		Amount          string            `json:"Amount"`
		OrderNumber     string            `json:"OrderNumber"`
		RRN             string            `json:"RRN"`
		CustomFields    map[string]string `json:"CustomFields"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}

	return g.normalize(body.AzulOrderID, body.RRN, body.IsoCode, body.ResponseMessage, body.Amount, body.OrderNumber, body.CustomFields), nil
}

func (g *AzulGateway) ParseReturn(params url.Values) (*Notification, error) {
	custom := make(map[string]string)
	for _, key := range []string{ParamSubjectRef, ParamKind, ParamAmount, ParamPeriod} {
		if v := strings.TrimSpace(params.Get(key)); v != "" {
			custom[key] = v
		}
	}

	return g.normalize(
		params.Get("AzulOrderId"),
		params.Get("RRN"),
		params.Get("IsoCode"),
		params.Get("ResponseMessage"),
		params.Get("Amount"),
		params.Get("OrderNumber"),
		custom,
	), nil
}

// normalize maps Azul's field names onto the shared Notification shape. Azul
// carries no numeric status field; the outcome rides entirely on IsoCode, so
// the status code is derived from it and a payload with no outcome at all
// fails closed.
func (g *AzulGateway) normalize(azulOrderID, rrn, isoCode, message, amount, orderNumber string, custom map[string]string) *Notification {
	operationID := strings.TrimSpace(azulOrderID)
	if operationID == "" {
		operationID = strings.TrimSpace(rrn)
	}

	params := make(map[string]string, len(custom)+1)
	for key, value := range custom {
		params[key] = strings.TrimSpace(value)
	}
	if orderNumber = strings.TrimSpace(orderNumber); orderNumber != "" {
		params[ParamOrderID] = orderNumber
	}

	isoCode = strings.TrimSpace(isoCode)
	statusCode := int32(0)
	if isoCode == approvedAuthCode {
		statusCode = 1
	}

	return &Notification{
		Gateway:     g.Name(),
		OperationID: operationID,
		StatusCode:  statusCode,
		AuthCode:    isoCode,
		TotalPaid:   strings.TrimSpace(amount),
		Message:     strings.TrimSpace(message),
		Params:      params,
	}
}

func (g *AzulGateway) signCheckout(order *entity.Order) string {
	canonical := g.cfg.MerchantID + "|" + order.OrderID + "|" + FormatAmountCents(order.AmountCents)
	return hexHMAC([]byte(canonical), g.cfg.AuthKey)
}

func checkoutParams(order *entity.Order) map[string]string {
	params := make(map[string]string, len(order.Extra)+4)
	for key, value := range order.Extra {
		params[key] = value
	}
	if order.SubjectRef != nil && strings.TrimSpace(*order.SubjectRef) != "" {
		params[ParamSubjectRef] = strings.TrimSpace(*order.SubjectRef)
	}
	params[ParamKind] = kindParam(order.Kind)
	params[ParamAmount] = FormatAmountCents(order.AmountCents)
	return params
}

func kindParam(kind int32) string {
	switch kind {
	case entity.PaymentKindEnrollment:
		return "enrollment"
	case entity.PaymentKindMonthly:
		return "monthly"
	default:
		return "custom"
	}
}

func hexHMAC(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHexHMAC(payload []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || strings.TrimSpace(secret) == "" {
		return false
	}
	candidate, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hmac.Equal(candidate, mac.Sum(nil))
}
