package repository

import (
	"context"
	"fmt"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewInventoryGormRepository(db *gorm.DB, clk clock.Clock) *InventoryGormRepository {
	return &InventoryGormRepository{db: db, clock: clk}
}

var _ repo.InventoryRepository = (*InventoryGormRepository)(nil)

// 在庫が足りるときだけ減らす（読み→書きの2往復にしない）
func (r *InventoryGormRepository) DecrementStock(ctx context.Context, productID int64, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("decrement stock: invalid quantity %d", qty)
	}
	db := r.db.WithContext(ctx)

	res := db.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": r.clock.Now(),
		})
	if res.Error != nil {
		return translate("decrement stock", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// 0件：商品が無いのか在庫不足なのか
	var n int64
	if err := db.Model(&model.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return translate("probe product", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrInsufficientStock
}

// 在庫を「現在値」に更新し、調整履歴も残す
func (r *InventoryGormRepository) SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) (int64, error) {
	var before int64
	now := r.clock.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//現在の在庫をロックして取得
		var p model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, productID).Error; err != nil {
			return translate("lock product", err)
		}
		before = p.Stock

		res := tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Updates(map[string]interface{}{"stock": newStock, "updated_at": now})
		if res.Error != nil {
			return translate("set stock", res.Error)
		}

		adj := model.NewInventoryAdjustment(adminUserID, productID, before, newStock, reason)
		model.TouchCreated(now, &adj)
		return translate("create adjustment", tx.Create(&adj).Error)
	})
	if err != nil {
		return 0, err
	}
	return before, nil
}
