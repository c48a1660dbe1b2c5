package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/printery/storefront/internal/cart"
	"github.com/printery/storefront/internal/checkout"
	"github.com/printery/storefront/internal/events"
	"github.com/printery/storefront/internal/logging"
	"github.com/printery/storefront/internal/payment"
)

type CheckoutHTTP struct {
	Svc      *checkout.Service
	Carts    *cart.Service
	Payments *payment.Client
	Events   events.Publisher
}

type checkoutRequest struct {
	Shipping       checkout.Address  `json:"shipping"`
	Billing        *checkout.Address `json:"billing"`
	UseSameAddress bool              `json:"use_same_address"`
}

// Checkout is the address-capture submission path. When use_same_address is
// set the billing address is copied from shipping at submission time.
func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit")

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	billing := checkout.ResolveBilling(req.Shipping, req.Billing, req.UseSameAddress)

	resp, err := h.Svc.SubmitCart(ctx, userID, req.Shipping, billing)
	if err != nil {
		return writeError(c, l, "checkout_error", err)
	}

	h.publishOrderEvent(c, userID.String(), map[string]any{
		"type":           "order_submitted",
		"user_id":        userID,
		"customer_email": req.Shipping.Email,
	})
	l.Info("checkout succeeded")
	return c.JSON(http.StatusOK, resp)
}

// LegacyCheckout keeps the old single-email entry alive: same pipeline, a
// synthesized placeholder address. Compatibility shim only.
func (h *CheckoutHTTP) LegacyCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.legacy")

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("legacy_checkout_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	resp, err := h.Svc.SubmitCartLegacy(ctx, userID, req.Email)
	if err != nil {
		return writeError(c, l, "legacy_checkout_error", err)
	}

	h.publishOrderEvent(c, userID.String(), map[string]any{
		"type":           "order_submitted",
		"user_id":        userID,
		"customer_email": req.Email,
		"legacy":         true,
	})
	return c.JSON(http.StatusOK, resp)
}

// StripeSession builds a hosted-payment redirect from the current cart
// snapshot. Adjacent to the fulfillment pipeline; it mutates nothing.
func (h *CheckoutHTTP) StripeSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.stripe")

	if h.Payments == nil {
		return c.JSON(http.StatusServiceUnavailable, "payments not configured")
	}

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		Email      string `json:"email"`
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	loaded, err := h.Carts.CartWithItems(ctx, userID)
	if err != nil {
		return writeError(c, l, "stripe_session_error", err)
	}
	if loaded == nil || len(loaded.Items) == 0 {
		return writeError(c, l, "stripe_session_error", checkout.ErrEmptyCart)
	}

	total, err := h.Carts.Total(ctx, userID)
	if err != nil {
		return writeError(c, l, "stripe_session_error", err)
	}

	first := loaded.Items[0]
	url, err := h.Payments.CreateCheckoutSession(ctx, payment.CheckoutSessionRequest{
		Amount:     total.InexactFloat64(),
		Currency:   "usd",
		UserID:     userID.String(),
		ProjectID:  first.Product.ProjectID.String(),
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		ProductID:  first.ProductID.String(),
		Email:      req.Email,
	})
	if err != nil {
		return writeError(c, l, "stripe_session_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"url": url}})
}

func (h *CheckoutHTTP) publishOrderEvent(c echo.Context, key string, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Events.Publish(ctx, events.TopicOrderEvents, key, event); err != nil {
		logging.FromContext(ctx).Warn("order event publish failed", "error", err)
	}
}
