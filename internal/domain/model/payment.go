package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

var paymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	for _, st := range paymentStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// 支払い記録（外部決済はしない。ステータスを持つだけ）
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64           `gorm:"not null;uniqueIndex" json:"order_id"`
	PaymentMethod string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status        PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	TransactionID string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	Timestamps
}
