package model

import (
	"time"
)

// NotifySetting 到期提醒设置（全局单行）
type NotifySetting struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Enabled          bool      `gorm:"not null;default:false" json:"enabled"`
	TelegramBotToken string    `gorm:"type:varchar(128)" json:"telegramBotToken"`
	Threshold15      bool      `gorm:"not null;default:true" json:"threshold15"`
	Threshold30      bool      `gorm:"not null;default:true" json:"threshold30"`
	Threshold90      bool      `gorm:"not null;default:false" json:"threshold90"`
	Threshold180     bool      `gorm:"not null;default:false" json:"threshold180"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (NotifySetting) TableName() string {
	return "notify_setting"
}

// TelegramWhitelist 允许接收提醒的 Telegram 会话
type TelegramWhitelist struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"chatId"`
	DisplayName string    `gorm:"type:varchar(128)" json:"displayName"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (TelegramWhitelist) TableName() string {
	return "telegram_whitelist"
}
