package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	users      *UserGormRepository
	categories *CategoryGormRepository
	products   *ProductGormRepository
	inventory  *InventoryGormRepository
	carts      *CartGormRepository
	promotions *PromotionGormRepository
	orders     *OrderGormRepository
	orderItems *OrderItemGormRepository
	payments   *PaymentGormRepository
	auditLogs  *AuditLogGormRepository
}

func (r *txReposGorm) Users() repo.UserRepository           { return r.users }
func (r *txReposGorm) Categories() repo.CategoryRepository  { return r.categories }
func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposGorm) Carts() repo.CartRepository           { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository   { return r.carts }
func (r *txReposGorm) Promotions() repo.PromotionRepository { return r.promotions }
func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) Payments() repo.PaymentRepository     { return r.payments }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

type TxManagerGorm struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewTxManagerGorm(db *gorm.DB, clk clock.Clock) *TxManagerGorm {
	return &TxManagerGorm{db: db, clock: clk}
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)

// ctx がキャンセルされたら pgx がクエリを止めて全体がロールバックされる
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(newTxRepos(tx, tm.clock))
	})
}

func newTxRepos(tx *gorm.DB, clk clock.Clock) *txReposGorm {
	return &txReposGorm{
		users:      NewUserGormRepository(tx, clk),
		categories: NewCategoryGormRepository(tx, clk),
		products:   NewProductGormRepository(tx, clk),
		inventory:  NewInventoryGormRepository(tx, clk),
		carts:      NewCartGormRepository(tx, clk),
		promotions: NewPromotionGormRepository(tx, clk),
		orders:     NewOrderGormRepository(tx, clk),
		orderItems: NewOrderItemGormRepository(tx, clk),
		payments:   NewPaymentGormRepository(tx, clk),
		auditLogs:  NewAuditLogGormRepository(tx, clk),
	}
}
