//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/types"
)

const defaultBillingHTTPBase = "http://localhost:48080"

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-http-%d", time.Now().UnixNano()))

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestBillingE2E(t *testing.T) {
	httpBase := os.Getenv("BILLING_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultBillingHTTPBase
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newHTTPClient(httpBase)

	t.Run("HTTPMissingRequestID", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, httpBase+"/payments?limit=10", nil)
		if err != nil {
			t.Fatalf("new request failed: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing x-request-id, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPValidationCreateOrder", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/orders", map[string]any{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid create request, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPCreateOrderUnsupportedGateway", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/orders", map[string]any{
			"gateway":      "paypal",
			"amount_cents": 13000,
			"description":  "Mensualidad Agosto",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPListPayments", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/payments?limit=10&offset=0", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.ListPaymentsResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal list payments failed: %v body=%s", err, string(body))
		}
	})

	t.Run("HTTPGetNotFound", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/payments/999999", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPCancelNotFound", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/payments/999999/cancel", map[string]any{"reason": "e2e"})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPWebhookUnsigned", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/webhooks/gateways/azul", map[string]any{
			"OrderNumber": "payment-sub-1-1700000000",
			"IsoCode":     "00",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPWebhookUnsupportedGateway", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/webhooks/gateways/stripe", map[string]any{"payload": "{}"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPChargeGenerationBadMonth", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/jobs/charges/generate", map[string]any{"month": "2026-13"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPLateFeesBadMonth", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/jobs/latefees/apply", map[string]any{"month": "August 2026"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, string(body))
		}
	})
}
