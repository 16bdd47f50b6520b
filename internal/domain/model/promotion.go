package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "Percentage"
	DiscountFixedAmount DiscountType = "FixedAmount"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixedAmount
}

// プロモーション。codeは大文字で保存して大小文字を区別しない
type Promotion struct {
	ID                 int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name               string              `gorm:"type:varchar(255);not null" json:"name"`
	Description        string              `gorm:"type:text" json:"description"`
	Code               string              `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType       DiscountType        `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue      decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinimumOrderAmount decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"minimum_order_amount"`
	IsActive           bool                `gorm:"not null;default:true" json:"is_active"`
	StartDate          time.Time           `gorm:"not null" json:"start_date"`
	EndDate            time.Time           `gorm:"not null" json:"end_date"`
	Timestamps

	// 対象商品・カテゴリ（片方向）
	Products   []PromotionProduct  `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE" json:"products"`
	Categories []PromotionCategory `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE" json:"categories"`
}

type PromotionProduct struct {
	PromotionID int64 `gorm:"primaryKey" json:"promotion_id"`
	ProductID   int64 `gorm:"primaryKey;index" json:"product_id"`
}

type PromotionCategory struct {
	PromotionID int64 `gorm:"primaryKey" json:"promotion_id"`
	CategoryID  int64 `gorm:"primaryKey;index" json:"category_id"`
}

func NormalizePromotionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (p Promotion) ProductIDs() []int64 {
	ids := make([]int64, 0, len(p.Products))
	for _, pp := range p.Products {
		ids = append(ids, pp.ProductID)
	}
	return ids
}

func (p Promotion) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(p.Categories))
	for _, pc := range p.Categories {
		ids = append(ids, pc.CategoryID)
	}
	return ids
}
