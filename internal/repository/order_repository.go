package repository

import (
	"context"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 取得系は明細と支払いも読み込む
type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 新しい順（order_date desc, id desc）
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// 注文番号の重複は ErrDuplicate。savepoint 内で入れるので Tx はそのまま使える
	Create(ctx context.Context, order *model.Order) error
	// deliveryDate が nil なら触らない
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, deliveryDate *time.Time) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error)
}

type PaymentRepository interface {
	// order_id 重複は ErrDuplicate
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error
}
