package handler

import (
	"net/http"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /promotions（active 以外は管理者）
type PromotionHandler struct {
	uc *usecase.PromotionUsecase
}

func NewPromotionHandler(uc *usecase.PromotionUsecase) *PromotionHandler {
	return &PromotionHandler{uc: uc}
}

// 日付は RFC3339
type PromotionRequest struct {
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	Code               string           `json:"code"`
	DiscountType       string           `json:"discount_type"`
	DiscountValue      decimal.Decimal  `json:"discount_value"`
	MinimumOrderAmount *decimal.Decimal `json:"minimum_order_amount"`
	IsActive           bool             `json:"is_active"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	ProductIDs         []int64          `json:"product_ids"`
	CategoryIDs        []int64          `json:"category_ids"`
}

func (r PromotionRequest) input() usecase.PromotionInput {
	return usecase.PromotionInput{
		Name:               r.Name,
		Description:        r.Description,
		Code:               r.Code,
		DiscountType:       r.DiscountType,
		DiscountValue:      r.DiscountValue,
		MinimumOrderAmount: r.MinimumOrderAmount,
		IsActive:           r.IsActive,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		ProductIDs:         r.ProductIDs,
		CategoryIDs:        r.CategoryIDs,
	}
}

func (h *PromotionHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/promotions/active", h.listActive)

	g := e.Group("/promotions", auth)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/code/:code", h.getByCode)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *PromotionHandler) listActive(c echo.Context) error {
	if _, _, err := authorize(c, authz.ViewActivePromos); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListActive(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PromotionHandler) list(c echo.Context) error {
	if _, _, err := authorize(c, authz.ManagePromotions); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PromotionHandler) get(c echo.Context) error {
	if _, _, err := authorize(c, authz.ManagePromotions); err != nil {
		return writeError(c, err)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PromotionHandler) getByCode(c echo.Context) error {
	if _, _, err := authorize(c, authz.ManagePromotions); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PromotionHandler) create(c echo.Context) error {
	if _, _, err := authorize(c, authz.ManagePromotions); err != nil {
		return writeError(c, err)
	}

	var req PromotionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Create(c.Request().Context(), req.input())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *PromotionHandler) update(c echo.Context) error {
	if _, _, err := authorize(c, authz.ManagePromotions); err != nil {
		return writeError(c, err)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req PromotionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PromotionHandler) remove(c echo.Context) error {
	if _, _, err := authorize(c, authz.ManagePromotions); err != nil {
		return writeError(c, err)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
