package repository

import "context"

// 在庫の更新と履歴保存をまとめた約束。
type InventoryRepository interface {
	// 在庫が足りるときだけ減算（1文のガード付きUPDATE）。
	// 足りなければ ErrInsufficientStock、商品がなければ ErrNotFound。失敗時は何も変えない
	DecrementStock(ctx context.Context, productID int64, qty int64) error

	// 管理者の在庫セット。調整履歴も同じTxで残し、変更前の在庫を返す
	SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) (int64, error)
}
