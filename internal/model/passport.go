package model

import (
	"time"
)

const (
	PassportStatusActive   = "active"
	PassportStatusInactive = "inactive"
)

// Passport 护照，业务上以护照号为唯一标识
type Passport struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PassportNo  string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"passportNo"`
	ClientID    int64     `gorm:"index;not null" json:"clientId"`
	Country     string    `gorm:"type:varchar(64);not null" json:"country"`
	FullName    string    `gorm:"type:varchar(128);not null" json:"fullName"`
	Gender      string    `gorm:"type:varchar(8)" json:"gender"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	IssueDate   time.Time `json:"issueDate"`
	ExpiryDate  time.Time `gorm:"index" json:"expiryDate"`
	InStock     bool      `gorm:"not null;default:true" json:"inStock"`     // 护照是否在库
	IsFollowing bool      `gorm:"not null;default:false" json:"isFollowing"` // 是否重点跟进
	Status      string    `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Remark      string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Visas  []Visa  `gorm:"foreignKey:PassportNo;references:PassportNo" json:"visas,omitempty"`
}

func (Passport) TableName() string {
	return "passport"
}
