package repository

import (
	"context"
	"errors"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"gorm.io/gorm"
)

type NotifyRepository struct {
	db *gorm.DB
}

func NewNotifyRepository(db *gorm.DB) *NotifyRepository {
	return &NotifyRepository{db: db}
}

// GetOrCreateSetting 取全局通知设置，没有则建一条默认记录
func (r *NotifyRepository) GetOrCreateSetting(ctx context.Context) (*model.NotifySetting, error) {
	var setting model.NotifySetting
	err := r.db.WithContext(ctx).First(&setting).Error
	if err == nil {
		return &setting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	setting = model.NotifySetting{Threshold15: true, Threshold30: true}
	if err := r.db.WithContext(ctx).Create(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *NotifyRepository) UpdateSetting(ctx context.Context, id int64, updates map[string]interface{}) (*model.NotifySetting, error) {
	if err := r.db.WithContext(ctx).
		Model(&model.NotifySetting{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	var setting model.NotifySetting
	if err := r.db.WithContext(ctx).First(&setting, id).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *NotifyRepository) ListWhitelist(ctx context.Context) ([]*model.TelegramWhitelist, error) {
	var entries []*model.TelegramWhitelist
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *NotifyRepository) ListActiveWhitelist(ctx context.Context) ([]*model.TelegramWhitelist, error) {
	var entries []*model.TelegramWhitelist
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&entries).Error
	return entries, err
}

func (r *NotifyRepository) GetWhitelistByID(ctx context.Context, id int64) (*model.TelegramWhitelist, error) {
	var entry model.TelegramWhitelist
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("whitelist not found")
		}
		return nil, err
	}
	return &entry, nil
}

func (r *NotifyRepository) GetWhitelistByChatID(ctx context.Context, chatID string) (*model.TelegramWhitelist, error) {
	var entry model.TelegramWhitelist
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *NotifyRepository) CreateWhitelist(ctx context.Context, entry *model.TelegramWhitelist) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *NotifyRepository) UpdateWhitelist(ctx context.Context, id int64, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.TelegramWhitelist{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("whitelist not found")
	}
	return nil
}

func (r *NotifyRepository) DeleteWhitelist(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.TelegramWhitelist{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("whitelist not found")
	}
	return nil
}

func (r *NotifyRepository) CountActiveWhitelist(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TelegramWhitelist{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}
