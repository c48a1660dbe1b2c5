package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/printery/storefront/internal/logging"
)

type Deps struct {
	Logger   *slog.Logger
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Catalog  *CatalogHTTP
	Orders   *OrdersHTTP
}

func Register(e *echo.Echo, d *Deps) {
	if d.Logger != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				req := c.Request()
				ctx := logging.IntoContext(req.Context(), d.Logger)
				c.SetRequest(req.WithContext(ctx))
				return next(c)
			}
		})
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	products := v1.Group("/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	v1.GET("/search", d.Catalog.Search)

	cart := v1.Group("/cart", RequireIdentity)
	cart.GET("", d.Cart.GetCart)
	cart.GET("/total", d.Cart.GetTotal)
	cart.GET("/count", d.Cart.GetItemCount)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:id", d.Cart.UpdateItemQuantity)
	cart.DELETE("/items/:id", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.ClearCart)

	co := v1.Group("/checkout", RequireIdentity)
	co.POST("", d.Checkout.Checkout)
	co.POST("/legacy", d.Checkout.LegacyCheckout)
	co.POST("/session", d.Checkout.StripeSession)

	v1.GET("/orders", d.Orders.ListOrders, RequireIdentity)
}
