package model

import "time"

// 管理者が在庫数を直接セットした記録。Delta = StockAfter - StockBefore
type InventoryAdjustment struct {
	ID          int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64 `gorm:"not null;index" json:"product_id"`
	AdminUserID int64 `gorm:"not null;index" json:"admin_user_id"`

	StockBefore int64  `gorm:"not null" json:"stock_before"`
	StockAfter  int64  `gorm:"not null" json:"stock_after"`
	Delta       int64  `gorm:"not null" json:"delta"`
	Reason      string `gorm:"type:varchar(255);not null" json:"reason"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
}

func NewInventoryAdjustment(adminUserID, productID, before, after int64, reason string) InventoryAdjustment {
	return InventoryAdjustment{
		ProductID:   productID,
		AdminUserID: adminUserID,
		StockBefore: before,
		StockAfter:  after,
		Delta:       after - before,
		Reason:      reason,
	}
}

func (a *InventoryAdjustment) TouchCreated(now time.Time) { a.CreatedAt = now }
func (a *InventoryAdjustment) TouchUpdated(time.Time)     {}
