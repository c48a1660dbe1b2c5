package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/printery/storefront/internal/cart"
	"github.com/printery/storefront/internal/checkout"
	"github.com/printery/storefront/internal/fulfillment"
)

// writeError maps service errors onto the façade's uniform failure shape.
// Anything unrecognized is a 500 with the detail kept server-side.
func writeError(c echo.Context, l *slog.Logger, op string, err error) error {
	var provErr *fulfillment.Error

	switch {
	case errors.Is(err, cart.ErrValidation), errors.Is(err, checkout.ErrValidation):
		l.Warn(op, "status", http.StatusBadRequest, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})

	case errors.Is(err, cart.ErrNotFound):
		l.Warn(op, "status", http.StatusNotFound, "error", err)
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})

	case errors.Is(err, checkout.ErrEmptyCart):
		l.Warn(op, "status", http.StatusConflict, "error", err)
		return c.JSON(http.StatusConflict, echo.Map{"error": "cart is empty"})

	case errors.As(err, &provErr):
		l.Error(op, "status", http.StatusBadGateway,
			"provider_status", provErr.Status, "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "fulfillment provider rejected the order"})

	default:
		l.Error(op, "status", http.StatusInternalServerError, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
