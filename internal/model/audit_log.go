package model

import (
	"time"
)

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// EntityKind 审计日志跟踪的实体类型标签
type EntityKind string

const (
	EntityUser      EntityKind = "USER"
	EntityClient    EntityKind = "CLIENT"
	EntityPassport  EntityKind = "PASSPORT"
	EntityVisa      EntityKind = "VISA"
	EntityNotify    EntityKind = "NOTIFY"
	EntitySupplier  EntityKind = "SUPPLIER"
	EntityProduct   EntityKind = "PRODUCT"
	EntityOrder     EntityKind = "ORDER"
	EntityOrderItem EntityKind = "ORDER_ITEM"
	EntityBill      EntityKind = "BILL"
	EntityPayment   EntityKind = "PAYMENT"
	EntityAudit     EntityKind = "AUDIT"
)

// AuditLog 审计日志，只追加不修改，仅按保留期批量清理
// EntityID 存放对象的展示名而非主键，直接用于界面展示
type AuditLog struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64     `gorm:"index" json:"userId"` // 系统触发的操作为空
	Action    string     `gorm:"type:varchar(20);not null" json:"action"`
	Entity    EntityKind `gorm:"type:varchar(32);index;not null" json:"entity"`
	EntityID  string     `gorm:"type:varchar(256);index;not null" json:"entityId"`
	DiffJSON  string     `gorm:"type:json" json:"diffJson"`
	IP        string     `gorm:"type:varchar(64)" json:"ip,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
