package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewAuditLogGormRepository(db *gorm.DB, clk clock.Clock) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db, clock: clk}
}

var _ repo.AuditLogRepository = (*AuditLogGormRepository)(nil)

// created_at は注入した時計で打つ
func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	model.TouchCreated(r.clock.Now(), &log)
	return translate("create audit log", r.db.WithContext(ctx).Create(&log).Error)
}

func (r *AuditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	q := auditLogScope(r.db.WithContext(ctx).Model(&model.AuditLog{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count audit logs", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := max(f.Offset, 0)

	var logs []model.AuditLog
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, translate("list audit logs", err)
	}
	return logs, total, nil
}

// 一覧と件数で同じ条件を使う
func auditLogScope(q *gorm.DB, f repo.AuditLogFilter) *gorm.DB {
	if f.ActorUserID != nil {
		q = q.Where("actor_user_id = ?", *f.ActorUserID)
	}
	if len(f.Actions) > 0 {
		q = q.Where("action IN ?", f.Actions)
	}
	if f.ResourceType != nil {
		q = q.Where("resource_type = ?", *f.ResourceType)
	}
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}
	return q
}
