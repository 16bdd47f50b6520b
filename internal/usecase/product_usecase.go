package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx repo.TransactionManager
}

// DI
func NewProductUsecase(tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{tx: tx}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "name", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	out := ProductListOutput{Page: in.Page, Limit: in.Limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, total, err := r.Products().ListPublic(ctx, repo.ProductListQuery{
			Page:       in.Page,
			Limit:      in.Limit,
			Q:          strings.TrimSpace(in.Q),
			CategoryID: in.CategoryID,
			MinPrice:   in.MinPrice,
			MaxPrice:   in.MaxPrice,
			Sort:       in.Sort,
		})
		if err != nil {
			return dbError(ctx, err)
		}
		out.Items = items
		out.Total = total
		return nil
	})
	if err != nil {
		return ProductListOutput{}, finishTx(ctx, err)
	}
	if out.Items == nil {
		out.Items = []model.Product{}
	}
	return out, nil
}

// 非公開の商品は一般には404
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var p model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		p, err = r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		if !p.IsActive {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		return nil
	})
	if err != nil {
		return model.Product{}, finishTx(ctx, err)
	}
	return p, nil
}

type AdminProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	IsActive    bool
	CategoryID  *int64
}

func validateProductInput(in AdminProductInput) FieldErrors {
	var fe FieldErrors
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fe.Add("name", "Name is required")
	} else if len(name) > 255 {
		fe.Add("name", "Name must be 255 characters or less")
	}
	if in.Price.IsNegative() {
		fe.Add("price", "Price must be >= 0")
	} else if !in.Price.Equal(in.Price.Round(2)) {
		fe.Add("price", "Price must have at most 2 decimal places")
	}
	if in.Stock < 0 {
		fe.Add("stock", "Stock must be >= 0")
	}
	return fe
}

// カテゴリ指定があれば存在すること
func checkCategory(ctx context.Context, r repo.TxRepos, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	_, err := r.Categories().FindByID(ctx, *categoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return newFieldError(CodeNotFound, "category_id", "Category not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateProductInput(in).Err(); err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := checkCategory(ctx, r, in.CategoryID); err != nil {
			return err
		}
		p, err := r.Products().Create(ctx, model.Product{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price.Round(2),
			Stock:       in.Stock,
			IsActive:    in.IsActive,
			CategoryID:  in.CategoryID,
		})
		if err != nil {
			return dbError(ctx, err)
		}
		created = p
		return writeAudit(ctx, r, adminUserID, model.AuditActionCreateProduct, model.AuditResourceProduct, p.ID,
			nil, snapshotProduct(p))
	})
	if err != nil {
		return model.Product{}, finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().Int64("product_id", created.ID).Int64("actor_user_id", adminUserID).Msg("product created")
	return created, nil
}

// 在庫は変えない（在庫は AdminUpdateInventory で履歴付きで変える）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in).Err(); err != nil {
		return model.Product{}, err
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := checkCategory(ctx, r, in.CategoryID); err != nil {
			return err
		}
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		err = r.Products().Update(ctx, model.Product{
			ID:          productID,
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price.Round(2),
			IsActive:    in.IsActive,
			CategoryID:  in.CategoryID,
		})
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		updated, err = r.Products().FindByID(ctx, productID)
		if err != nil {
			return dbError(ctx, err)
		}
		return writeAudit(ctx, r, adminUserID, model.AuditActionUpdateProduct, model.AuditResourceProduct, productID,
			snapshotProduct(before), snapshotProduct(updated))
	})
	if err != nil {
		return model.Product{}, finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().Int64("product_id", productID).Int64("actor_user_id", adminUserID).Msg("product updated")
	return updated, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err == nil {
			err = r.Products().SoftDelete(ctx, productID)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		return writeAudit(ctx, r, adminUserID, model.AuditActionDeleteProduct, model.AuditResourceProduct, productID,
			snapshotProduct(before), nil)
	})
	if err != nil {
		return finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().Int64("product_id", productID).Int64("actor_user_id", adminUserID).Msg("product deleted")
	return nil
}

// 監査ログに残す商品の項目（在庫は UPDATE_STOCK 側で残す）
type productSnapshot struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	IsActive   bool            `json:"is_active"`
	CategoryID *int64          `json:"category_id"`
}

func snapshotProduct(p model.Product) productSnapshot {
	return productSnapshot{Name: p.Name, Price: p.Price, IsActive: p.IsActive, CategoryID: p.CategoryID}
}

type InventoryOutput struct {
	ProductID   int64 `json:"product_id"`
	BeforeStock int64 `json:"before_stock"`
	Stock       int64 `json:"stock"`
}

type stockChange struct {
	Stock int64 `json:"stock"`
}

// 在庫を直接セットする。調整履歴と監査ログも同じTxで残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) (InventoryOutput, error) {
	if adminUserID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	var fe FieldErrors
	if newStock < 0 {
		fe.Add("stock", "Stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		fe.Add("reason", "Reason is required")
	} else if len(strings.TrimSpace(reason)) > 255 {
		fe.Add("reason", "Reason must be 255 characters or less")
	}
	if err := fe.Err(); err != nil {
		return InventoryOutput{}, err
	}

	out := InventoryOutput{ProductID: productID, Stock: newStock}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Inventory().SetStockWithAdjustment(ctx, adminUserID, productID, newStock, strings.TrimSpace(reason))
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		out.BeforeStock = before

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		return writeAudit(ctx, r, adminUserID, model.AuditActionUpdateStock, model.AuditResourceProduct, productID,
			stockChange{Stock: before}, stockChange{Stock: newStock})
	})
	if err != nil {
		return InventoryOutput{}, finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("product_id", productID).
		Int64("before", out.BeforeStock).
		Int64("after", newStock).
		Msg("stock updated")
	return out, nil
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		cats, err = r.Categories().List(ctx)
		if err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return []model.Category{}, finishTx(ctx, err)
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, nil
}

func (u *ProductUsecase) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var c model.Category
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		c, err = r.Categories().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "category not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return model.Category{}, finishTx(ctx, err)
	}
	return c, nil
}

type CategoryInput struct {
	Name        string
	Description string
}

func (u *ProductUsecase) AdminCreateCategory(ctx context.Context, adminUserID int64, in CategoryInput) (model.Category, error) {
	if adminUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, newFieldError(CodeValidation, "name", "Name is required")
	}
	if len(name) > 100 {
		return model.Category{}, newFieldError(CodeValidation, "name", "Name must be 100 characters or less")
	}

	var created model.Category
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Categories().Create(ctx, model.Category{Name: name, Description: in.Description})
		if errors.Is(err, repo.ErrDuplicate) {
			return newFieldError(CodeConflict, "name", "Category name already exists")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		created = c
		return writeAudit(ctx, r, adminUserID, model.AuditActionCreateCategory, model.AuditResourceCategory, c.ID,
			nil, c)
	})
	if err != nil {
		return model.Category{}, finishTx(ctx, err)
	}
	return created, nil
}
