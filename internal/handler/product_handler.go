package handler

import (
	"net/http"
	"strconv"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products, /categories の公開API
type ProductHandler struct {
	uc         *usecase.ProductUsecase
	promotions *usecase.PromotionUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, promotions *usecase.PromotionUsecase) *ProductHandler {
	return &ProductHandler{uc: uc, promotions: promotions}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/products/:id/price", h.price)
	e.GET("/categories", h.listCategories)
	e.GET("/categories/:id", h.category)
}

func (h *ProductHandler) list(c echo.Context) error {
	if _, _, err := authorize(c, authz.BrowseCatalog); err != nil {
		return writeError(c, err)
	}

	// page（default 1）
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	// limit（default 20）
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	categoryID, ok := queryInt64Ptr(c, "category_id")
	if !ok {
		return badRequest(c, "invalid category_id")
	}

	var minPrice *decimal.Decimal
	if v := c.QueryParam("min_price"); v != "" {
		x, err := decimal.NewFromString(v)
		if err != nil {
			return badRequest(c, "invalid min_price")
		}
		minPrice = &x
	}

	var maxPrice *decimal.Decimal
	if v := c.QueryParam("max_price"); v != "" {
		x, err := decimal.NewFromString(v)
		if err != nil {
			return badRequest(c, "invalid max_price")
		}
		maxPrice = &x
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:       page,
		Limit:      limit,
		Q:          c.QueryParam("q"),
		CategoryID: categoryID,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Sort:       c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	if _, _, err := authorize(c, authz.BrowseCatalog); err != nil {
		return writeError(c, err)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

// GET /products/:id/price?quantity=2&promotion_code=SUMMER15
func (h *ProductHandler) price(c echo.Context) error {
	if _, _, err := authorize(c, authz.PreviewPrice); err != nil {
		return writeError(c, err)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	quantity := int64(1)
	if v := c.QueryParam("quantity"); v != "" {
		q, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid quantity")
		}
		quantity = q
	}

	out, err := h.promotions.ProductPrice(c.Request().Context(), id, quantity, c.QueryParam("promotion_code"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) listCategories(c echo.Context) error {
	if _, _, err := authorize(c, authz.BrowseCatalog); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) category(c echo.Context) error {
	if _, _, err := authorize(c, authz.BrowseCatalog); err != nil {
		return writeError(c, err)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
