package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// The provider's order API uses PascalCase field names; the json tags here
// are its convention, not ours.

type Address struct {
	FirstName         string `json:"FirstName"`
	LastName          string `json:"LastName"`
	Line1             string `json:"Line1"`
	Line2             string `json:"Line2,omitempty"`
	City              string `json:"City"`
	State             string `json:"State"`
	CountryCode       string `json:"CountryCode"`
	PostalCode        string `json:"PostalCode"`
	Phone             string `json:"Phone"`
	Email             string `json:"Email"`
	IsBusinessAddress bool   `json:"IsBusinessAddress"`
}

type Image struct {
	URL          string `json:"Url"`
	SpaceID      string `json:"SpaceId"`
	ThumbnailURL string `json:"ThumbnailUrl"`
}

type LineItem struct {
	Quantity int     `json:"Quantity"`
	SKU      string  `json:"SKU"`
	ShipType string  `json:"ShipType"`
	Images   []Image `json:"Images"`
}

// Envelope is one order submission. SourceID doubles as the idempotency key
// across retries of the same cart.
type Envelope struct {
	ShipToAddress  Address        `json:"ShipToAddress"`
	BillingAddress Address        `json:"BillingAddress"`
	Items          []LineItem     `json:"Items"`
	SourceID       string         `json:"SourceId"`
	IsInTestMode   bool           `json:"IsInTestMode"`
	Meta           map[string]any `json:"Meta"`
}

// Response is the provider's order-creation payload, passed through to the
// caller untouched.
type Response map[string]any

// Error is a non-2xx answer from the provider, carrying its status and raw
// body as detail text.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fulfillment: provider returned %d: %s", e.Status, e.Body)
}

// Submitter is the capability checkout needs; tests plug in a fake.
type Submitter interface {
	SubmitOrder(ctx context.Context, env *Envelope) (Response, error)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
}

// SubmitOrder POSTs the envelope to the provider's order endpoint. Transport
// failures and 5xx answers are retried up to the attempt budget; 4xx answers
// fail immediately since resubmitting the same envelope cannot fix them.
func (c *Client) SubmitOrder(ctx context.Context, env *Envelope) (Response, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: marshal envelope: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.backoff):
			}
		}

		resp, retryable, err := c.submitOnce(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) submitOnce(ctx context.Context, body []byte) (Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("fulfillment: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fulfillment: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		provErr := &Error{Status: resp.StatusCode, Body: string(detail)}
		return nil, resp.StatusCode >= 500, provErr
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("fulfillment: decode response: %w", err)
	}
	return result, false, nil
}
