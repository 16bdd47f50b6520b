package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// 遷移の順番は強制しない。値が集合に入っているかだけ見る
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_number"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	OrderDate       time.Time       `gorm:"not null;index" json:"order_date"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	Timestamps

	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payment *Payment    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payment"`
}

// 注文明細。作成時点の商品名・単価のスナップショット（後から変えない）
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"order_id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Timestamps
}

func (i *OrderItem) Recalculate() {
	i.TotalPrice = i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
