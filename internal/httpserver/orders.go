package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/printery/storefront/internal/logging"
	"github.com/printery/storefront/internal/store"
)

type OrdersHTTP struct {
	Store *store.Store
}

// ListOrders returns the local submission records for a customer email,
// newest first. Order rows carry no user id; email is the lookup key.
func (h *OrdersHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")

	if _, err := GetID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, "email is required")
	}
	limit, offset := pageParams(c)

	orders, err := h.Store.ListOrdersByEmail(ctx, email, limit, offset)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orders)
}
