package handler

import (
	"net/http"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout と /orders（利用者向け）
type OrderHandler struct {
	orders   *usecase.OrderUsecase
	checkout *usecase.CheckoutUsecase
}

func NewOrderHandler(orders *usecase.OrderUsecase, checkout *usecase.CheckoutUsecase) *OrderHandler {
	return &OrderHandler{orders: orders, checkout: checkout}
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	PromotionCode   string `json:"promotion_code"`
}

type OrderLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderRequest struct {
	ShippingAddress string             `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
	Items           []OrderLineRequest `json:"items"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.POST("/checkout", h.placeFromCart, auth)

	g := e.Group("/orders", auth)
	g.POST("", h.create)
	g.GET("/my-orders", h.listMine)
	g.GET("/:id", h.get)
}

// カートから注文を作る
func (h *OrderHandler) placeFromCart(c echo.Context) error {
	userID, _, err := authorize(c, authz.Checkout)
	if err != nil {
		return writeError(c, err)
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.checkout.Checkout(c.Request().Context(), userID, usecase.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PromotionCode:   req.PromotionCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, _, err := authorize(c, authz.PlaceOrder)
	if err != nil {
		return writeError(c, err)
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	lines := make([]usecase.OrderLineInput, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, usecase.OrderLineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	out, err := h.orders.CreateOrder(c.Request().Context(), userID, usecase.CreateOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           lines,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	userID, _, err := authorize(c, authz.ReadOwnOrders)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.orders.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 本人以外は管理者だけ（判定は usecase）
func (h *OrderHandler) get(c echo.Context) error {
	userID, role, err := authorize(c, authz.ReadOwnOrders)
	if err != nil {
		return writeError(c, err)
	}

	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.orders.GetOrder(c.Request().Context(), userID, role, orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
