package repository

import (
	"context"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromotionGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewPromotionGormRepository(db *gorm.DB, clk clock.Clock) *PromotionGormRepository {
	return &PromotionGormRepository{db: db, clock: clk}
}

var _ repo.PromotionRepository = (*PromotionGormRepository)(nil)

// 対象商品・カテゴリも一緒に読む
func (r *PromotionGormRepository) withScope(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Products").Preload("Categories")
}

func (r *PromotionGormRepository) FindByID(ctx context.Context, id int64) (model.Promotion, error) {
	var p model.Promotion
	if err := r.withScope(ctx).First(&p, id).Error; err != nil {
		return model.Promotion{}, translate("find promotion", err)
	}
	return p, nil
}

func (r *PromotionGormRepository) FindByCode(ctx context.Context, code string) (model.Promotion, error) {
	var p model.Promotion
	if err := r.withScope(ctx).Where("code = ?", code).First(&p).Error; err != nil {
		return model.Promotion{}, translate("find promotion by code", err)
	}
	return p, nil
}

func (r *PromotionGormRepository) List(ctx context.Context) ([]model.Promotion, error) {
	var ps []model.Promotion
	if err := r.withScope(ctx).Order("id asc").Find(&ps).Error; err != nil {
		return []model.Promotion{}, translate("list promotions", err)
	}
	return ps, nil
}

func (r *PromotionGormRepository) ListActive(ctx context.Context, now time.Time) ([]model.Promotion, error) {
	var ps []model.Promotion
	err := r.withScope(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("end_date asc").Order("id asc").
		Find(&ps).Error
	if err != nil {
		return []model.Promotion{}, translate("list active promotions", err)
	}
	return ps, nil
}

// 商品に直接、またはカテゴリ経由で紐づく有効なプロモーション
func (r *PromotionGormRepository) ListForProduct(ctx context.Context, productID int64, categoryID *int64, now time.Time) ([]model.Promotion, error) {
	q := r.withScope(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now)

	if categoryID != nil {
		q = q.Where("(id IN (SELECT promotion_id FROM promotion_products WHERE product_id = ?) OR id IN (SELECT promotion_id FROM promotion_categories WHERE category_id = ?))", productID, *categoryID)
	} else {
		q = q.Where("id IN (SELECT promotion_id FROM promotion_products WHERE product_id = ?)", productID)
	}

	var ps []model.Promotion
	if err := q.Order("id asc").Find(&ps).Error; err != nil {
		return []model.Promotion{}, translate("list promotions for product", err)
	}
	return ps, nil
}

func (r *PromotionGormRepository) Create(ctx context.Context, p model.Promotion) (model.Promotion, error) {
	p.Code = model.NormalizePromotionCode(p.Code)
	model.TouchCreated(r.clock.Now(), &p)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
			return translate("create promotion", err)
		}
		return replaceScope(tx, &p)
	})
	if err != nil {
		return model.Promotion{}, err
	}
	return p, nil
}

func (r *PromotionGormRepository) Update(ctx context.Context, p model.Promotion) error {
	p.Code = model.NormalizePromotionCode(p.Code)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Promotion{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"name":                 p.Name,
			"description":          p.Description,
			"code":                 p.Code,
			"discount_type":        p.DiscountType,
			"discount_value":       p.DiscountValue,
			"minimum_order_amount": p.MinimumOrderAmount,
			"is_active":            p.IsActive,
			"start_date":           p.StartDate,
			"end_date":             p.EndDate,
			"updated_at":           r.clock.Now(),
		})
		if res.Error != nil {
			return translate("update promotion", res.Error)
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return replaceScope(tx, &p)
	})
}

func (r *PromotionGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promotion_id = ?", id).Delete(&model.PromotionProduct{}).Error; err != nil {
			return translate("delete promotion products", err)
		}
		if err := tx.Where("promotion_id = ?", id).Delete(&model.PromotionCategory{}).Error; err != nil {
			return translate("delete promotion categories", err)
		}
		res := tx.Delete(&model.Promotion{}, id)
		if res.Error != nil {
			return translate("delete promotion", res.Error)
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 紐づけは全部消して入れ直す
func replaceScope(tx *gorm.DB, p *model.Promotion) error {
	if err := tx.Where("promotion_id = ?", p.ID).Delete(&model.PromotionProduct{}).Error; err != nil {
		return translate("reset promotion products", err)
	}
	if err := tx.Where("promotion_id = ?", p.ID).Delete(&model.PromotionCategory{}).Error; err != nil {
		return translate("reset promotion categories", err)
	}

	for i := range p.Products {
		p.Products[i].PromotionID = p.ID
	}
	for i := range p.Categories {
		p.Categories[i].PromotionID = p.ID
	}
	if len(p.Products) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p.Products).Error; err != nil {
			return translate("create promotion products", err)
		}
	}
	if len(p.Categories) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p.Categories).Error; err != nil {
			return translate("create promotion categories", err)
		}
	}
	return nil
}
