package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
)

const (
	BillStatusUnbilled = "unbilled"
	BillStatusBilled   = "billed"
)

// Order 销售订单，绑定一本护照，客户信息为下单时的快照
type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo        string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"orderNo"`
	PassportNo     string          `gorm:"type:varchar(32);index;not null" json:"passportNo"`
	ClientID       int64           `gorm:"index;not null" json:"clientId"`
	CustomerName   string          `gorm:"type:varchar(128);not null" json:"customerName"`
	PassportNumber string          `gorm:"type:varchar(32);not null" json:"passportNumber"`
	Country        string          `gorm:"type:varchar(64)" json:"country"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalCost"`
	OrderStatus    string          `gorm:"type:varchar(20);index;not null;default:pending" json:"orderStatus"`
	BillStatus     string          `gorm:"type:varchar(20);index;not null;default:unbilled" json:"billStatus"`
	Remark         string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`

	Client     *Client     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Passport   *Passport   `gorm:"foreignKey:PassportNo;references:PassportNo" json:"passport,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"orderItems,omitempty"`
}

func (Order) TableName() string {
	return "sale_order"
}

// OrderItem 订单明细，价格为下单时快照，不随产品变动
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"index;not null" json:"orderId"`
	ProductID int64           `gorm:"index;not null" json:"productId"`
	SalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"salePrice"`
	CostPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"costPrice"`
	Status    string          `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	Remark    string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_item"
}

// DeriveOrderStatus 根据明细状态推导订单状态：
// 全部 completed -> completed，任一 processing -> processing，否则 pending
func DeriveOrderStatus(items []OrderItem) string {
	if len(items) == 0 {
		return OrderStatusPending
	}

	allCompleted := true
	for _, item := range items {
		if item.Status == OrderStatusProcessing {
			return OrderStatusProcessing
		}
		if item.Status != OrderStatusCompleted {
			allCompleted = false
		}
	}

	if allCompleted {
		return OrderStatusCompleted
	}
	return OrderStatusPending
}
