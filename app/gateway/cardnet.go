package gateway

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type CardNetConfig struct {
	MerchantNumber string
	TerminalKey    string
	CheckoutURL    string
}

// CardNetGateway integrates the CardNet checkout. Unlike Azul it reports a
// numeric transaction status (1 approved, 0 declined) next to the ISO
// response code; both survive normalization so the decision can weigh them.
type CardNetGateway struct {
	cfg CardNetConfig
}

func NewCardNetGateway(cfg CardNetConfig) *CardNetGateway {
	return &CardNetGateway{cfg: cfg}
}

func (g *CardNetGateway) Name() string {
	return "cardnet"
}

func (g *CardNetGateway) CheckoutURL(order *entity.Order) (string, error) {
	if strings.TrimSpace(g.cfg.CheckoutURL) == "" {
		return "", errors.New("cardnet checkout url is not configured")
	}
	if strings.TrimSpace(g.cfg.MerchantNumber) == "" {
		return "", errors.New("cardnet merchant number is not configured")
	}

	values := url.Values{}
	values.Set("MerchantNumber", g.cfg.MerchantNumber)
	values.Set("OrdenId", order.OrderID)
	values.Set("TransactionAmount", FormatAmountCents(order.AmountCents))
	values.Set("Concepto", order.Description)
	if strings.TrimSpace(order.ReturnURL) != "" {
		values.Set("UrlRetorno", order.ReturnURL)
	}
	for key, value := range checkoutParams(order) {
		values.Set(key, value)
	}
	values.Set("Firma", hexHMAC([]byte(g.cfg.MerchantNumber+"|"+order.OrderID+"|"+FormatAmountCents(order.AmountCents)), g.cfg.TerminalKey))

	return strings.TrimRight(g.cfg.CheckoutURL, "/") + "?" + values.Encode(), nil
}

func (g *CardNetGateway) ParseWebhook(payload []byte, signature string) (*Notification, error) {
	if !verifyHexHMAC(payload, signature, g.cfg.TerminalKey) {
		return nil, errors.New("invalid cardnet signature")
	}

	var body struct {
		TransactionID  string            `json:"TransactionID"`
		Status         int32             `json:"Status"`
		ResponseCode   string            `json:"ResponseCode"`
		Total          string            `json:"Total"`
		Message        string            `json:"Message"`
		OrdenID        string            `json:"OrdenId"`
		AdditionalData map[string]string `json:"AdditionalData"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}

	return g.normalize(body.TransactionID, body.Status, body.ResponseCode, body.Total, body.Message, body.OrdenID, body.AdditionalData), nil
}

func (g *CardNetGateway) ParseReturn(params url.Values) (*Notification, error) {
	status := int32(0)
	if raw := strings.TrimSpace(params.Get("Status")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, errors.New("invalid cardnet status")
		}
		status = int32(parsed)
	}

	custom := make(map[string]string)
	for _, key := range []string{ParamSubjectRef, ParamKind, ParamAmount, ParamPeriod} {
		if v := strings.TrimSpace(params.Get(key)); v != "" {
			custom[key] = v
		}
	}

	return g.normalize(
		params.Get("TransactionID"),
		status,
		params.Get("ResponseCode"),
		params.Get("Total"),
		params.Get("Message"),
		params.Get("OrdenId"),
		custom,
	), nil
}

func (g *CardNetGateway) normalize(transactionID string, status int32, responseCode, total, message, ordenID string, additional map[string]string) *Notification {
	params := make(map[string]string, len(additional)+1)
	for key, value := range additional {
		params[key] = strings.TrimSpace(value)
	}
	if ordenID = strings.TrimSpace(ordenID); ordenID != "" {
		params[ParamOrderID] = ordenID
	}

	return &Notification{
		Gateway:     g.Name(),
		OperationID: strings.TrimSpace(transactionID),
		StatusCode:  status,
		AuthCode:    strings.TrimSpace(responseCode),
		TotalPaid:   strings.TrimSpace(total),
		Message:     strings.TrimSpace(message),
		Params:      params,
	}
}
