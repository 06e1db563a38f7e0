package service

import (
	"testing"

	"visacenter/internal/infrastructure/database"
	"visacenter/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 内存 sqlite，单连接保证所有操作落在同一个库上
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newBillService(t *testing.T) (*BillService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	svc := NewBillService(db, newTestRedis(t), zap.NewNop(), "billing.events.test")
	return svc, db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedClient(t *testing.T, db *gorm.DB, name string) *model.Client {
	t.Helper()

	client := &model.Client{Name: name}
	require.NoError(t, db.Create(client).Error)
	return client
}

func seedOrder(t *testing.T, db *gorm.DB, clientID int64, orderNo, amount string) *model.Order {
	t.Helper()

	order := &model.Order{
		OrderNo:        orderNo,
		PassportNo:     "E" + orderNo,
		ClientID:       clientID,
		CustomerName:   "测试客户",
		PassportNumber: "E" + orderNo,
		Country:        "日本",
		TotalAmount:    dec(amount),
		TotalCost:      dec("0"),
		OrderStatus:    model.OrderStatusPending,
		BillStatus:     model.BillStatusUnbilled,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}
