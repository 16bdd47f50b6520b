package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Users() UserRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Promotions() PromotionRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Payments() PaymentRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fn がエラーを返したら全部ロールバック
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
