package service

import (
	"context"
	"testing"
	"time"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, name string) *model.Product {
	t.Helper()

	supplier := &model.Supplier{Name: name + "供应商"}
	require.NoError(t, db.Create(supplier).Error)

	product := &model.Product{
		Name:       name,
		Price:      dec("500"),
		CostPrice:  dec("300"),
		SupplierID: supplier.ID,
		Status:     model.ProductStatusActive,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedPassport(t *testing.T, db *gorm.DB, clientID int64, passportNo, fullName string) *model.Passport {
	t.Helper()

	passport := &model.Passport{
		PassportNo: passportNo,
		ClientID:   clientID,
		Country:    "中国",
		FullName:   fullName,
		ExpiryDate: time.Now().AddDate(5, 0, 0),
		InStock:    true,
		Status:     model.PassportStatusActive,
	}
	require.NoError(t, db.Create(passport).Error)
	return passport
}

func newOrderService(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	return NewOrderService(db, zap.NewNop()), db
}

func TestCreateOrderSnapshotsPassport(t *testing.T) {
	svc, db := newOrderService(t)
	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	pA := seedProduct(t, db, "日本签证")
	pB := seedProduct(t, db, "韩国签证")

	order, err := svc.CreateOrder(context.Background(), nil, passport.PassportNo, []OrderItemInput{
		{ProductID: pA.ID, SalePrice: dec("500"), CostPrice: dec("300")},
		{ProductID: pB.ID, SalePrice: dec("400.50"), CostPrice: dec("200")},
	}, "加急")
	require.NoError(t, err)

	assert.NotEmpty(t, order.OrderNo)
	assert.Equal(t, client.ID, order.ClientID)
	assert.Equal(t, "张三", order.CustomerName)
	assert.Equal(t, "E1234567", order.PassportNumber)
	assert.True(t, order.TotalAmount.Equal(dec("900.50")))
	assert.True(t, order.TotalCost.Equal(dec("500")))
	assert.Equal(t, model.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, model.BillStatusUnbilled, order.BillStatus)
	assert.Len(t, order.OrderItems, 2)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, db := newOrderService(t)
	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	product := seedProduct(t, db, "日本签证")

	_, err := svc.CreateOrder(context.Background(), nil, "E9999999", []OrderItemInput{
		{ProductID: product.ID, SalePrice: dec("500")},
	}, "")
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.CreateOrder(context.Background(), nil, passport.PassportNo, nil, "")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.CreateOrder(context.Background(), nil, passport.PassportNo, []OrderItemInput{
		{ProductID: product.ID + 999, SalePrice: dec("500")},
	}, "")
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateOrderReplacesItems(t *testing.T) {
	svc, db := newOrderService(t)
	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	pA := seedProduct(t, db, "日本签证")
	pB := seedProduct(t, db, "韩国签证")

	order, err := svc.CreateOrder(context.Background(), nil, passport.PassportNo, []OrderItemInput{
		{ProductID: pA.ID, SalePrice: dec("500"), CostPrice: dec("300")},
	}, "")
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(context.Background(), nil, order.ID, []OrderItemInput{
		{ProductID: pB.ID, SalePrice: dec("400"), CostPrice: dec("200"), Status: model.OrderStatusCompleted},
	}, "改签")
	require.NoError(t, err)

	assert.True(t, updated.TotalAmount.Equal(dec("400")))
	assert.True(t, updated.TotalCost.Equal(dec("200")))
	assert.Equal(t, model.OrderStatusCompleted, updated.OrderStatus)
	assert.Equal(t, "改签", updated.Remark)

	// 旧明细被替换掉
	var items []model.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, pB.ID, items[0].ProductID)
}

func TestUpdateOrderStatusDerivation(t *testing.T) {
	svc, db := newOrderService(t)
	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	pA := seedProduct(t, db, "日本签证")
	pB := seedProduct(t, db, "韩国签证")

	order, err := svc.CreateOrder(context.Background(), nil, passport.PassportNo, []OrderItemInput{
		{ProductID: pA.ID, SalePrice: dec("500")},
	}, "")
	require.NoError(t, err)

	// 任一 processing 整单 processing
	updated, err := svc.UpdateOrder(context.Background(), nil, order.ID, []OrderItemInput{
		{ProductID: pA.ID, SalePrice: dec("500"), Status: model.OrderStatusCompleted},
		{ProductID: pB.ID, SalePrice: dec("400"), Status: model.OrderStatusProcessing},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, updated.OrderStatus)

	// 全部 completed 整单 completed
	updated, err = svc.UpdateOrder(context.Background(), nil, order.ID, []OrderItemInput{
		{ProductID: pA.ID, SalePrice: dec("500"), Status: model.OrderStatusCompleted},
		{ProductID: pB.ID, SalePrice: dec("400"), Status: model.OrderStatusCompleted},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, updated.OrderStatus)
}

func TestUpdateStatusManually(t *testing.T) {
	svc, db := newOrderService(t)
	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	product := seedProduct(t, db, "日本签证")

	order, err := svc.CreateOrder(context.Background(), nil, passport.PassportNo, []OrderItemInput{
		{ProductID: product.ID, SalePrice: dec("500")},
	}, "")
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), nil, order.ID, model.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, updated.OrderStatus)

	_, err = svc.UpdateStatus(context.Background(), nil, order.ID, "shipped")
	assert.True(t, apperr.IsValidation(err))
}

func TestDeleteOrderRefusedWhenBilled(t *testing.T) {
	svc, db := newOrderService(t)
	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	product := seedProduct(t, db, "日本签证")

	order, err := svc.CreateOrder(context.Background(), nil, passport.PassportNo, []OrderItemInput{
		{ProductID: product.ID, SalePrice: dec("500")},
	}, "")
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Order{}).
		Where("id = ?", order.ID).
		Update("bill_status", model.BillStatusBilled).Error)

	err = svc.DeleteOrder(context.Background(), nil, order.ID)
	assert.True(t, apperr.IsValidation(err))
}

func TestDeleteOrderRemovesItems(t *testing.T) {
	svc, db := newOrderService(t)
	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	product := seedProduct(t, db, "日本签证")

	order, err := svc.CreateOrder(context.Background(), nil, passport.PassportNo, []OrderItemInput{
		{ProductID: product.ID, SalePrice: dec("500")},
	}, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(context.Background(), nil, order.ID))

	var count int64
	require.NoError(t, db.Model(&model.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	_, err = svc.GetOrder(context.Background(), order.ID)
	assert.True(t, apperr.IsNotFound(err))
}
