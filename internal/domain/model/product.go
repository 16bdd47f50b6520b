package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 注文から参照されるので物理削除しない（DeletedAtで論理削除）
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int64           `gorm:"not null;check:chk_products_stock_non_negative,stock >= 0" json:"stock"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	CategoryID  *int64          `gorm:"index" json:"category_id"`
	Timestamps
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
