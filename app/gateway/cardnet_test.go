package gateway

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

func newCardNetForTest() *CardNetGateway {
	return NewCardNetGateway(CardNetConfig{
		MerchantNumber: "349000001",
		TerminalKey:    "cardnet-secret",
		CheckoutURL:    "https://pagos.cardnet.example/checkout",
	})
}

func TestCardNetCheckoutURLSigned(t *testing.T) {
	g := newCardNetForTest()
	order := &entity.Order{
		OrderID:     "custom-99",
		AmountCents: 5000,
		Kind:        entity.PaymentKindCustom,
		Description: "Tournament fee",
	}

	link, err := g.CheckoutURL(order)
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	values := parsed.Query()

	assert.Equal(t, "349000001", values.Get("MerchantNumber"))
	assert.Equal(t, "custom-99", values.Get("OrdenId"))
	assert.Equal(t, "50.00", values.Get("TransactionAmount"))
	assert.Equal(t, "custom", values.Get(ParamKind))

	expected := hexHMAC([]byte("349000001|custom-99|50.00"), "cardnet-secret")
	assert.Equal(t, expected, values.Get("Firma"))
}

func TestCardNetParseWebhookStatusDecides(t *testing.T) {
	g := newCardNetForTest()

	approved := []byte(`{"TransactionID":"CN-1","Status":1,"ResponseCode":"00","Total":"50.00","OrdenId":"custom-99"}`)
	notification, err := g.ParseWebhook(approved, hexHMAC(approved, "cardnet-secret"))
	require.NoError(t, err)
	assert.True(t, notification.Approved())
	assert.Equal(t, "cardnet:CN-1", notification.OperationKey())
	assert.Equal(t, "custom-99", notification.Params[ParamOrderID])

	declined := []byte(`{"TransactionID":"CN-2","Status":0,"Total":"50.00","Message":"Approved"}`)
	notification, err = g.ParseWebhook(declined, hexHMAC(declined, "cardnet-secret"))
	require.NoError(t, err)
	assert.False(t, notification.Approved())
}

func TestCardNetParseWebhookRejectsBadSignature(t *testing.T) {
	g := newCardNetForTest()
	payload := []byte(`{"TransactionID":"CN-3","Status":1}`)
	_, err := g.ParseWebhook(payload, hexHMAC(payload, "wrong-key"))
	assert.Error(t, err)
}

func TestCardNetParseReturn(t *testing.T) {
	g := newCardNetForTest()
	params := url.Values{}
	params.Set("TransactionID", "CN-4")
	params.Set("Status", "1")
	params.Set("ResponseCode", "00")
	params.Set("Total", "130.00")
	params.Set("OrdenId", "payment-sub-7-1700000000")

	notification, err := g.ParseReturn(params)
	require.NoError(t, err)
	assert.True(t, notification.Approved())
	assert.Equal(t, "CN-4", notification.OperationID)

	params.Set("Status", "garbage")
	_, err = g.ParseReturn(params)
	assert.Error(t, err)
}
