package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product 产品/服务（如某国签证办理），销售价与成本价为默认值，下单时快照
type Product struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string          `gorm:"type:varchar(128);not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"costPrice"`
	SupplierID int64           `gorm:"index;not null" json:"supplierId"`
	Status     string          `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Remark     string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

func (Product) TableName() string {
	return "product"
}
