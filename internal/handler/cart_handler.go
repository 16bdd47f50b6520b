package handler

import (
	"net/http"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	CartItemID int64 `json:"cart_item_id"`
	Quantity   int64 `json:"quantity"`
}

type ApplyPromotionRequest struct {
	PromotionCode string `json:"promotion_code"`
}

// /cart, /cart/items を登録（auth は AuthJWT）
func (h *CartHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/cart", auth)

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.PUT("/items", h.updateItem)
	g.DELETE("/items/:id", h.deleteItem)
	g.POST("/apply-promotion", h.applyPromotion)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, _, err := authorize(c, authz.UseCart)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, _, err := authorize(c, authz.UseCart)
	if err != nil {
		return writeError(c, err)
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, usecase.AddCartItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 数量0は削除
func (h *CartHandler) updateItem(c echo.Context) error {
	userID, _, err := authorize(c, authz.UseCart)
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), userID, usecase.UpdateCartItemInput{
		CartItemID: req.CartItemID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	userID, _, err := authorize(c, authz.UseCart)
	if err != nil {
		return writeError(c, err)
	}

	itemID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), userID, itemID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, _, err := authorize(c, authz.UseCart)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Clear(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 割引のプレビュー（カートには保存しない）
func (h *CartHandler) applyPromotion(c echo.Context) error {
	userID, _, err := authorize(c, authz.UseCart)
	if err != nil {
		return writeError(c, err)
	}

	var req ApplyPromotionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.ApplyPromotion(c.Request().Context(), userID, req.PromotionCode)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
