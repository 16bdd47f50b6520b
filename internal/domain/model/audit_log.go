package model

import (
	"slices"
	"time"
)

// 管理者の変更操作。
type AuditAction string

const (
	AuditActionUpdateStock         AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus   AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionUpdatePaymentStatus AuditAction = "UPDATE_PAYMENT_STATUS"
	AuditActionCreateProduct       AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct       AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct       AuditAction = "DELETE_PRODUCT"
	AuditActionCreateCategory      AuditAction = "CREATE_CATEGORY"
)

var auditActions = []AuditAction{
	AuditActionUpdateStock,
	AuditActionUpdateOrderStatus,
	AuditActionUpdatePaymentStatus,
	AuditActionCreateProduct,
	AuditActionUpdateProduct,
	AuditActionDeleteProduct,
	AuditActionCreateCategory,
}

func (a AuditAction) Valid() bool { return slices.Contains(auditActions, a) }

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceCategory AuditResourceType = "category"
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourcePayment  AuditResourceType = "payment"
)

func (t AuditResourceType) Valid() bool {
	switch t {
	case AuditResourceProduct, AuditResourceCategory, AuditResourceOrder, AuditResourcePayment:
		return true
	}
	return false
}

// 監査ログ。誰がどの対象をどう変えたかを、変更と同じTxで残す（追記のみ）
type AuditLog struct {
	ID          int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index:idx_audit_resource" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index:idx_audit_resource" json:"resource_id"`

	// 作成は before が null、削除は after が null
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
}

func (a *AuditLog) TouchCreated(now time.Time) { a.CreatedAt = now }
func (a *AuditLog) TouchUpdated(time.Time)     {}
