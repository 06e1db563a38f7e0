package repository

import (
	"context"
	"time"

	"visacenter/internal/model"

	"gorm.io/gorm"
)

// AuditFilter 审计日志查询条件，Limit 由上层钳制
type AuditFilter struct {
	Entity   model.EntityKind
	EntityID string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) List(ctx context.Context, filter AuditFilter) ([]*model.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&model.AuditLog{})

	if filter.Entity != "" {
		query = query.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var entries []*model.AuditLog
	err := query.
		Preload("User").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&entries).Error
	return entries, err
}

// DeleteOlderThan 清理保留期外的日志，返回删除条数
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.AuditLog{})
	return result.RowsAffected, result.Error
}
