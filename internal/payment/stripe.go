package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the payment gateway's checkout-session endpoint. The
// gateway handles capture itself; this service only obtains the redirect URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type CheckoutSessionRequest struct {
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	UserID     string  `json:"userId"`
	ProjectID  string  `json:"projectId"`
	SuccessURL string  `json:"successUrl"`
	CancelURL  string  `json:"cancelUrl"`
	ProductID  string  `json:"productId"`
	Email      string  `json:"email"`
}

// CreateCheckoutSession returns the redirect URL for the hosted payment page.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("payment: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/stripe/create-checkout-session", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("payment: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return "", fmt.Errorf("payment: checkout session failed with status %d: %s", resp.StatusCode, detail)
	}

	var result struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("payment: decode response: %w", err)
	}
	if result.Data.URL == "" {
		return "", fmt.Errorf("payment: checkout session response has no url")
	}
	return result.Data.URL, nil
}
