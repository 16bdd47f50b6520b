package model

import "github.com/shopspring/decimal"

// 1ユーザーにカートは1つ。チェックアウトでは空にするだけで消さない
type Cart struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;uniqueIndex" json:"user_id"`
	Timestamps

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

// 小計は毎回明細から出す（保存しない）
func (c Cart) Subtotal() decimal.Decimal {
	return SumCartItems(c.Items)
}

func SumCartItems(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

// カートの明細。追加時点の単価を保存する
type CartItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID     int64           `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID  int64           `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index" json:"product_id"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Timestamps
}

// 合計は入力を信用せず必ずここで計算
func (i *CartItem) Recalculate() {
	i.TotalPrice = i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

