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

type OrderGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewOrderGormRepository(db *gorm.DB, clk clock.Clock) *OrderGormRepository {
	return &OrderGormRepository{db: db, clock: clk}
}

var _ repo.OrderRepository = (*OrderGormRepository)(nil)

// 明細（id順）と支払いを一緒に読む
func (r *OrderGormRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Payment")
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.withDetails(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return model.Order{}, translate("find order", err)
	}
	return o, nil
}

// 新しい順
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var orders []model.Order
	err := r.withDetails(ctx).
		Where("user_id = ?", userID).
		Order("order_date desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, translate("list orders", err)
	}
	return orders, nil
}

func (r *OrderGormRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("order_number = ?", orderNumber).Count(&n).Error; err != nil {
		return false, translate("probe order number", err)
	}
	return n > 0, nil
}

// 入れ子のTransactionはsavepointになる。
// 番号が重複してもsavepointまで戻すだけなので外側のTxは続けられる
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	model.TouchCreated(r.clock.Now(), order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return translate("create order", tx.Omit(clause.Associations).Create(order).Error)
	})
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, deliveryDate *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": r.clock.Now(),
	}
	if deliveryDate != nil {
		updates["delivery_date"] = *deliveryDate
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID).Updates(updates)
	if res.Error != nil {
		return translate("update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("order_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("order_date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, translate("count orders", err)
	}

	var orders []model.Order
	offset := (f.Page - 1) * f.Limit
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Payment").
		Order("order_date desc").Order("id desc").
		Limit(f.Limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, 0, translate("list admin orders", err)
	}
	return orders, total, nil
}
