package repository

import (
	"context"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
)

// ゼロ値の項目は絞り込まない。Actions はどれかに一致すればよい。
// 期間は両端を含む
type AuditLogFilter struct {
	ActorUserID *int64
	Actions     []model.AuditAction

	ResourceType *model.AuditResourceType
	ResourceID   *int64

	CreatedFrom *time.Time
	CreatedTo   *time.Time

	Limit  int
	Offset int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順（id desc）。total は limit/offset をかける前の件数
	List(ctx context.Context, filter AuditLogFilter) (logs []model.AuditLog, total int64, err error)
}
