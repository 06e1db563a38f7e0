package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BillPayStatusUnpaid  = "unpaid"
	BillPayStatusPartial = "partial"
	BillPayStatusPaid    = "paid"
)

// Int64List JSON 数组形式存储的 int64 列表
type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		l = Int64List{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Int64List) Scan(value interface{}) error {
	if value == nil {
		*l = Int64List{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("不支持的 Int64List 列类型: %T", value)
	}
}

// Bill 账单，聚合同一客户的若干订单
// totalAmount 在创建时定格，之后订单变动不会重算
type Bill struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BillNo          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"billNo"`
	ClientID        int64           `gorm:"index;not null" json:"clientId"`
	OrderIDs        Int64List       `gorm:"type:json;not null" json:"orderIds"`
	OrderCount      int             `gorm:"not null" json:"orderCount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paidAmount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"remainingAmount"`
	BillStatus      string          `gorm:"type:varchar(20);index;not null;default:unpaid" json:"billStatus"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`

	Client   *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Payments []Payment `gorm:"foreignKey:BillID" json:"payments,omitempty"`
}

func (Bill) TableName() string {
	return "bill"
}

// Payment 付款记录，只增删不改
type Payment struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BillID      int64           `gorm:"index;not null" json:"billId"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"paymentDate"`
	Remark      string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (Payment) TableName() string {
	return "payment"
}

// DeriveBillStatus 根据金额推导账单状态：
// 剩余为 0 -> paid，已付大于 0 -> partial，否则 unpaid
func DeriveBillStatus(totalAmount, paidAmount decimal.Decimal) string {
	remaining := totalAmount.Sub(paidAmount)
	if remaining.IsZero() {
		return BillPayStatusPaid
	}
	if paidAmount.GreaterThan(decimal.Zero) {
		return BillPayStatusPartial
	}
	return BillPayStatusUnpaid
}
