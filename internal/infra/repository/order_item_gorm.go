package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewOrderItemGormRepository(db *gorm.DB, clk clock.Clock) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db, clock: clk}
}

var _ repo.OrderItemRepository = (*OrderItemGormRepository)(nil)

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	if len(items) == 0 {
		return []model.OrderItem{}, nil
	}
	now := r.clock.Now()
	out := make([]model.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = orderID
		it.Recalculate()
		model.TouchCreated(now, &it)
		out[i] = it
	}
	if err := r.db.WithContext(ctx).Create(&out).Error; err != nil {
		return nil, translate("create order items", err)
	}
	return out, nil
}
