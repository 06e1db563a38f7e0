package model

import (
	"time"
)

// Visa 签证，挂在护照下
type Visa struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PassportNo string    `gorm:"type:varchar(32);index;not null" json:"passportNo"`
	Country    string    `gorm:"type:varchar(64);not null" json:"country"`
	VisaName   string    `gorm:"type:varchar(128);not null" json:"visaName"`
	ExpiryDate time.Time `gorm:"index" json:"expiryDate"`
	Status     string    `gorm:"type:varchar(20);not null;default:active" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Passport *Passport `gorm:"foreignKey:PassportNo;references:PassportNo" json:"passport,omitempty"`
}

func (Visa) TableName() string {
	return "visa"
}
