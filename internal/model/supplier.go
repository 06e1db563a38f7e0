package model

import (
	"time"
)

// Supplier 供应商（签证服务/机票等产品的上游）
type Supplier struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Remark    string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Products []Product `gorm:"foreignKey:SupplierID" json:"products,omitempty"`
}

func (Supplier) TableName() string {
	return "supplier"
}
