package repository

import (
	"context"
	"strings"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

// DI
func NewProductGormRepository(db *gorm.DB, clk clock.Clock) *ProductGormRepository {
	return &ProductGormRepository{db: db, clock: clk}
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)

// 公開商品のみを、検索/カテゴリ/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	// 公開（is_active=true）かつ、論理削除されていないものだけ
	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)

	// q nameを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		tx = tx.Where("name ILIKE ?", "%"+s+"%")
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, translate("count products", err)
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	case "name":
		tx = tx.Order("name asc").Order("id asc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, translate("list products", err)
	}
	return products, total, nil
}

// IDで商品を取得（論理削除済みは ErrNotFound）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, translate("find product", err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var ps []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error; err != nil {
		return nil, translate("find products", err)
	}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	model.TouchCreated(r.clock.Now(), &p)
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, translate("create product", err)
	}
	return p, nil
}

// 商品の更新（在庫は在庫APIで変える）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"is_active":   p.IsActive,
		"category_id": p.CategoryID,
		"updated_at":  r.clock.Now(),
	})
	if res.Error != nil {
		return translate("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（論理削除）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return translate("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
