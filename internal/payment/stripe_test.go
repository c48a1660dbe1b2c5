package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/stripe/create-checkout-session", r.URL.Path)
		w.Write([]byte(`{"data":{"url":"https://pay.example/s/1"}}`))
	}))
	defer srv.Close()

	url, err := NewClient(srv.URL).CreateCheckoutSession(context.Background(), CheckoutSessionRequest{
		Amount:   25.50,
		Currency: "usd",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://pay.example/s/1", url)
}

func TestCreateCheckoutSessionGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such project", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateCheckoutSession(context.Background(), CheckoutSessionRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "422")
}

func TestCreateCheckoutSessionMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateCheckoutSession(context.Background(), CheckoutSessionRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no url")
}
