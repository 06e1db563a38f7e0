package model

import (
	"time"
)

// Client 客户（旅行社的企业/个人客户，护照和订单都挂在客户下）
type Client struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"name"`
	Remark    string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Client) TableName() string {
	return "client"
}
