package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printery/storefront/internal/checkout"
	"github.com/printery/storefront/internal/events"
	"github.com/printery/storefront/internal/fulfillment"
	"github.com/printery/storefront/internal/payment"
)

type fakeSubmitter struct {
	calls   int
	lastEnv *fulfillment.Envelope
	err     error
}

func (f *fakeSubmitter) SubmitOrder(_ context.Context, env *fulfillment.Envelope) (fulfillment.Response, error) {
	f.calls++
	f.lastEnv = env
	if f.err != nil {
		return nil, f.err
	}
	return fulfillment.Response{"Id": "prov-42"}, nil
}

func newCheckoutEnv(t *testing.T) (*testEnv, *CheckoutHTTP, *fakeSubmitter) {
	t.Helper()
	env := newTestEnv(t)
	submitter := &fakeSubmitter{}
	svc := &checkout.Service{
		Carts:       env.carts,
		Orders:      env.store,
		Fulfillment: submitter,
		Config: checkout.Config{
			TestMode:           true,
			PlaceholderSKU:     "PlaceholderSKU",
			NeedsCustomization: true,
		},
	}
	h := &CheckoutHTTP{Svc: svc, Carts: env.carts, Events: events.Nop{}}
	return env, h, submitter
}

func validAddressBody() map[string]any {
	return map[string]any{
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"line1":       "12 Analytical Row",
		"city":        "London",
		"state":       "LDN",
		"countryCode": "GB",
		"postalCode":  "N1 9GU",
		"phone":       "+44 20 7946 0000",
		"email":       "ada@example.com",
	}
}

func TestCheckoutHandlerSuccess(t *testing.T) {
	env, h, submitter := newCheckoutEnv(t)
	userID := uuid.New()
	product := env.seedProduct("14.00")

	_, err := env.carts.AddItem(testContext(), userID, product.ID, 1, nil)
	require.NoError(t, err)

	body := map[string]any{
		"shipping":         validAddressBody(),
		"use_same_address": true,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", body, &userID)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "prov-42", resp["Id"])

	require.Equal(t, 1, submitter.calls)

	count, err := env.carts.ItemCount(testContext(), userID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCheckoutHandlerUseSameAddressCopiesShipping(t *testing.T) {
	env, h, submitter := newCheckoutEnv(t)
	userID := uuid.New()
	product := env.seedProduct("14.00")

	_, err := env.carts.AddItem(testContext(), userID, product.ID, 1, nil)
	require.NoError(t, err)

	other := validAddressBody()
	other["firstName"] = "Ignored"
	body := map[string]any{
		"shipping":         validAddressBody(),
		"billing":          other,
		"use_same_address": true,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", body, &userID)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, submitter.lastEnv.ShipToAddress, submitter.lastEnv.BillingAddress)
	require.Equal(t, "Ada", submitter.lastEnv.BillingAddress.FirstName)
}

func TestCheckoutHandlerSeparateBillingAddress(t *testing.T) {
	env, h, submitter := newCheckoutEnv(t)
	userID := uuid.New()
	product := env.seedProduct("14.00")

	_, err := env.carts.AddItem(testContext(), userID, product.ID, 1, nil)
	require.NoError(t, err)

	billing := validAddressBody()
	billing["firstName"] = "Grace"
	body := map[string]any{
		"shipping":         validAddressBody(),
		"billing":          billing,
		"use_same_address": false,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", body, &userID)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Grace", submitter.lastEnv.BillingAddress.FirstName)
}

func TestCheckoutHandlerValidationFailsBeforeSubmit(t *testing.T) {
	env, h, submitter := newCheckoutEnv(t)
	userID := uuid.New()
	product := env.seedProduct("14.00")

	_, err := env.carts.AddItem(testContext(), userID, product.ID, 1, nil)
	require.NoError(t, err)

	shipping := validAddressBody()
	shipping["email"] = ""
	body := map[string]any{
		"shipping":         shipping,
		"use_same_address": true,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", body, &userID)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, submitter.calls)
}

func TestCheckoutHandlerEmptyCart(t *testing.T) {
	env, h, submitter := newCheckoutEnv(t)
	userID := uuid.New()

	body := map[string]any{
		"shipping":         validAddressBody(),
		"use_same_address": true,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", body, &userID)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Zero(t, submitter.calls)
}

func TestCheckoutHandlerProviderFailure(t *testing.T) {
	env, h, submitter := newCheckoutEnv(t)
	userID := uuid.New()
	product := env.seedProduct("14.00")

	_, err := env.carts.AddItem(testContext(), userID, product.ID, 2, nil)
	require.NoError(t, err)

	submitter.err = &fulfillment.Error{Status: 500, Body: "boom"}

	body := map[string]any{
		"shipping":         validAddressBody(),
		"use_same_address": true,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", body, &userID)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	count, err := env.carts.ItemCount(testContext(), userID)
	require.NoError(t, err)
	require.Equal(t, 2, count, "cart must survive a failed submission")
}

func TestLegacyCheckoutHandler(t *testing.T) {
	env, h, submitter := newCheckoutEnv(t)
	userID := uuid.New()
	product := env.seedProduct("14.00")

	_, err := env.carts.AddItem(testContext(), userID, product.ID, 1, nil)
	require.NoError(t, err)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout/legacy",
		map[string]any{"email": "legacy@example.com"}, &userID)
	require.NoError(t, h.LegacyCheckout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "legacy@example.com", submitter.lastEnv.ShipToAddress.Email)
}

func TestStripeSessionHandler(t *testing.T) {
	env, h, _ := newCheckoutEnv(t)
	userID := uuid.New()
	product := env.seedProduct("2.50")

	_, err := env.carts.AddItem(testContext(), userID, product.ID, 4, nil)
	require.NoError(t, err)

	var gotReq payment.CheckoutSessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stripe/create-checkout-session", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"data":{"url":"https://pay.example/session/abc"}}`))
	}))
	defer srv.Close()
	h.Payments = payment.NewClient(srv.URL)

	body := map[string]any{
		"email":       "ada@example.com",
		"success_url": "https://shop.example/checkout/success",
		"cancel_url":  "https://shop.example/cart",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout/session", body, &userID)
	require.NoError(t, h.StripeSession(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "https://pay.example/session/abc", resp.Data.URL)

	require.InDelta(t, 10.0, gotReq.Amount, 0.001)
	require.Equal(t, "usd", gotReq.Currency)
	require.Equal(t, userID.String(), gotReq.UserID)
	require.Equal(t, product.ID.String(), gotReq.ProductID)
	require.Equal(t, "ada@example.com", gotReq.Email)
}

func TestStripeSessionHandlerEmptyCart(t *testing.T) {
	env, h, _ := newCheckoutEnv(t)
	userID := uuid.New()
	h.Payments = payment.NewClient("http://unused.example")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout/session",
		map[string]any{"email": "ada@example.com"}, &userID)
	require.NoError(t, h.StripeSession(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestStripeSessionHandlerUnconfigured(t *testing.T) {
	env, h, _ := newCheckoutEnv(t)
	userID := uuid.New()
	h.Payments = nil

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout/session",
		map[string]any{"email": "ada@example.com"}, &userID)
	require.NoError(t, h.StripeSession(c))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
