package server

import (
	"net/http"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers は main で組み立てたハンドラ一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Promotion    *handler.PromotionHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminProduct *handler.AdminProductHandler
}

func RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, auth)
	h.Order.RegisterRoutes(e, auth)
	h.Promotion.RegisterRoutes(e, auth)
	h.AdminOrder.RegisterRoutes(e, auth)
	h.AdminProduct.RegisterRoutes(e, auth)
}
