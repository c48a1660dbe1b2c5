package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/printery/storefront/internal/cart"
	"github.com/printery/storefront/internal/events"
	"github.com/printery/storefront/internal/logging"
)

type CartHTTP struct {
	Svc    *cart.Service
	Events events.Publisher
}

// publish sends a best-effort domain event. Failures are logged and never
// surfaced to the client.
func (h *CartHTTP) publish(c echo.Context, key string, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Events.Publish(ctx, events.TopicCartEvents, key, event); err != nil {
		logging.FromContext(ctx).Warn("cart event publish failed", "error", err)
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := GetID(c)
	if err != nil {
		l.Error("get_cart_error", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	loaded, err := h.Svc.CartWithItems(ctx, userID)
	if err != nil {
		return writeError(c, l, "get_cart_error", err)
	}
	if loaded == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, loaded)
}

func (h *CartHTTP) GetTotal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.total")

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	total, err := h.Svc.Total(ctx, userID)
	if err != nil {
		return writeError(c, l, "get_total_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total})
}

func (h *CartHTTP) GetItemCount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.count")

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	count, err := h.Svc.ItemCount(ctx, userID)
	if err != nil {
		return writeError(c, l, "get_count_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := GetID(c)
	if err != nil {
		l.Error("add_to_cart_error", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		ProductID     uuid.UUID       `json:"product_id"`
		Quantity      int             `json:"quantity"`
		Customization json.RawMessage `json:"customization"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.Svc.AddItem(ctx, userID, req.ProductID, req.Quantity, req.Customization)
	if err != nil {
		return writeError(c, l, "add_to_cart_error", err)
	}

	h.publish(c, userID.String(), map[string]any{
		"type":       "cart_item_added",
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   item.Quantity,
	})
	l.Info("item added to cart", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItemQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid item id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateItemQuantity(ctx, itemID, req.Quantity)
	if err != nil {
		return writeError(c, l, "update_quantity_error", err)
	}

	h.publish(c, userID.String(), map[string]any{
		"type":     "cart_item_quantity_updated",
		"user_id":  userID,
		"item_id":  itemID,
		"quantity": req.Quantity,
	})

	if item == nil {
		// Zero or negative quantity removed the row.
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid item id")
	}

	if err := h.Svc.RemoveItem(ctx, itemID); err != nil {
		return writeError(c, l, "remove_item_error", err)
	}

	h.publish(c, userID.String(), map[string]any{
		"type":    "cart_item_removed",
		"user_id": userID,
		"item_id": itemID,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := GetID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		return writeError(c, l, "clear_cart_error", err)
	}

	h.publish(c, userID.String(), map[string]any{
		"type":    "cart_cleared",
		"user_id": userID,
	})
	l.Info("cart cleared")
	return c.NoContent(http.StatusNoContent)
}
