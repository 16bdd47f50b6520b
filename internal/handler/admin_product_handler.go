package handler

import (
	"net/http"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	IsActive    bool            `json:"is_active"`
	CategoryID  *int64          `json:"category_id"`
}

// InventoryUpdateRequest は在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// /admin/products, /admin/inventory, /admin/categories をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	admin := e.Group("/admin", auth)

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PUT("/inventory/:product_id", h.updateInventory)
	admin.POST("/categories", h.createCategory)
}

func (r ProductRequest) input() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
		CategoryID:  r.CategoryID,
	}
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, _, err := authorize(c, authz.ManageCatalog)
	if err != nil {
		return writeError(c, err)
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.input())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

// stock は無視（在庫は /admin/inventory から）
func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	adminID, _, err := authorize(c, authz.ManageCatalog)
	if err != nil {
		return writeError(c, err)
	}

	productID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, productID, req.input())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	adminID, _, err := authorize(c, authz.ManageCatalog)
	if err != nil {
		return writeError(c, err)
	}

	productID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, productID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, _, err := authorize(c, authz.ManageInventory)
	if err != nil {
		return writeError(c, err)
	}

	productID, ok := paramID(c, "product_id")
	if !ok {
		return badRequest(c, "invalid product_id")
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, productID, req.Stock, req.Reason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) createCategory(c echo.Context) error {
	adminID, _, err := authorize(c, authz.ManageCatalog)
	if err != nil {
		return writeError(c, err)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AdminCreateCategory(c.Request().Context(), adminID, usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}
