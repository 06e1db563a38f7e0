package repository

import (
	"context"
	"errors"
	"time"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"gorm.io/gorm"
)

// VisaFilter 签证列表过滤条件，到期语义同 PassportFilter
type VisaFilter struct {
	Q          string
	PassportNo string
	Days       *int
	Expired    bool
}

type VisaRepository struct {
	db *gorm.DB
}

func NewVisaRepository(db *gorm.DB) *VisaRepository {
	return &VisaRepository{db: db}
}

func (r *VisaRepository) Create(ctx context.Context, visa *model.Visa) error {
	return r.db.WithContext(ctx).Create(visa).Error
}

func (r *VisaRepository) GetByID(ctx context.Context, id int64) (*model.Visa, error) {
	var visa model.Visa
	err := r.db.WithContext(ctx).First(&visa, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Visa not found")
		}
		return nil, err
	}
	return &visa, nil
}

func (r *VisaRepository) List(ctx context.Context, filter VisaFilter) ([]*model.Visa, error) {
	query := r.db.WithContext(ctx).Model(&model.Visa{})

	if filter.Q != "" {
		like := "%" + filter.Q + "%"
		query = query.Where("visa_name LIKE ? OR passport_no LIKE ?", like, like)
	}
	if filter.PassportNo != "" {
		query = query.Where("passport_no = ?", filter.PassportNo)
	}
	query = applyExpiryFilter(query, filter.Days, filter.Expired)

	var visas []*model.Visa
	err := query.Preload("Passport").Order("expiry_date ASC").Find(&visas).Error
	return visas, err
}

func (r *VisaRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Visa{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("Visa not found")
	}
	return nil
}

func (r *VisaRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Visa{}, id).Error
}

func (r *VisaRepository) CountByClientID(ctx context.Context, clientID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visa{}).
		Joins("JOIN passport ON passport.passport_no = visa.passport_no").
		Where("passport.client_id = ?", clientID).
		Count(&count).Error
	return count, err
}

func (r *VisaRepository) CountFiltered(ctx context.Context, expiryFrom, expiryTo *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Visa{})
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
