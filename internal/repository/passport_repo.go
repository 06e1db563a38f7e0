package repository

import (
	"context"
	"errors"
	"time"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"gorm.io/gorm"
)

// PassportFilter 护照列表过滤条件
// Days 表示"N 天内到期"，Expired 表示"已过期"，两者互斥，Expired 优先
type PassportFilter struct {
	Q        string
	ClientID *int64
	Days     *int
	Expired  bool
}

type PassportRepository struct {
	db *gorm.DB
}

func NewPassportRepository(db *gorm.DB) *PassportRepository {
	return &PassportRepository{db: db}
}

// applyExpiryFilter 到期时间过滤，护照/签证列表和到期提醒共用同一套规则
func applyExpiryFilter(query *gorm.DB, days *int, expired bool) *gorm.DB {
	now := time.Now()
	if expired {
		return query.Where("expiry_date <= ?", now)
	}
	if days != nil && *days > 0 {
		to := now.AddDate(0, 0, *days)
		return query.Where("expiry_date > ? AND expiry_date <= ?", now, to)
	}
	return query
}

func (r *PassportRepository) Create(ctx context.Context, passport *model.Passport) error {
	return r.db.WithContext(ctx).Create(passport).Error
}

func (r *PassportRepository) GetByNo(ctx context.Context, passportNo string) (*model.Passport, error) {
	var passport model.Passport
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("passport_no = ?", passportNo).
		First(&passport).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Passport not found")
		}
		return nil, err
	}
	return &passport, nil
}

func (r *PassportRepository) GetByNoWithVisas(ctx context.Context, passportNo string) (*model.Passport, error) {
	var passport model.Passport
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Visas").
		Where("passport_no = ?", passportNo).
		First(&passport).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Passport not found")
		}
		return nil, err
	}
	return &passport, nil
}

func (r *PassportRepository) List(ctx context.Context, filter PassportFilter) ([]*model.Passport, error) {
	query := r.db.WithContext(ctx).Model(&model.Passport{})

	if filter.Q != "" {
		like := "%" + filter.Q + "%"
		query = query.Where("passport_no LIKE ? OR full_name LIKE ?", like, like)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	query = applyExpiryFilter(query, filter.Days, filter.Expired)

	var passports []*model.Passport
	err := query.Preload("Client").Order("expiry_date ASC").Find(&passports).Error
	return passports, err
}

func (r *PassportRepository) Update(ctx context.Context, passportNo string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Passport{}).
		Where("passport_no = ?", passportNo).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("Passport not found")
	}
	return nil
}

func (r *PassportRepository) Delete(ctx context.Context, passportNo string) error {
	return r.db.WithContext(ctx).Where("passport_no = ?", passportNo).Delete(&model.Passport{}).Error
}

func (r *PassportRepository) CountByClientID(ctx context.Context, clientID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Passport{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	return count, err
}

// CountFiltered 仪表盘统计用，from/to 为空表示不限
func (r *PassportRepository) CountFiltered(ctx context.Context, inStock, isFollowing *bool, expiryFrom, expiryTo *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Passport{})
	if inStock != nil {
		query = query.Where("in_stock = ?", *inStock)
	}
	if isFollowing != nil {
		query = query.Where("is_following = ?", *isFollowing)
	}
	if expiryFrom != nil {
		query = query.Where("expiry_date > ?", *expiryFrom)
	}
	if expiryTo != nil {
		query = query.Where("expiry_date <= ?", *expiryTo)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
