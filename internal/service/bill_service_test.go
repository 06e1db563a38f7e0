package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"visacenter/internal/infrastructure/lock"
	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBillEmptyOrders(t *testing.T) {
	svc, _ := newBillService(t)

	_, err := svc.CreateBill(context.Background(), nil, nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateBillDuplicateIDs(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	// 重复 id 取回的行数少于请求数
	_, err := svc.CreateBill(context.Background(), nil, []int64{order.ID, order.ID})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateBillUnknownOrder(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	_, err := svc.CreateBill(context.Background(), nil, []int64{order.ID, order.ID + 999})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateBillMultiClient(t *testing.T) {
	svc, db := newBillService(t)
	clientA := seedClient(t, db, "客户A")
	clientB := seedClient(t, db, "客户B")
	orderA := seedOrder(t, db, clientA.ID, "ORD001", "100")
	orderB := seedOrder(t, db, clientB.ID, "ORD002", "200")

	_, err := svc.CreateBill(context.Background(), nil, []int64{orderA.ID, orderB.ID})
	assert.True(t, apperr.IsConflict(err))
}

func TestCreateBillAlreadyBilled(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	orderA := seedOrder(t, db, client.ID, "ORD001", "100")
	orderB := seedOrder(t, db, client.ID, "ORD002", "200")

	_, err := svc.CreateBill(context.Background(), nil, []int64{orderA.ID})
	require.NoError(t, err)

	_, err = svc.CreateBill(context.Background(), nil, []int64{orderA.ID, orderB.ID})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateBillSuccess(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	orderA := seedOrder(t, db, client.ID, "ORD001", "100.50")
	orderB := seedOrder(t, db, client.ID, "ORD002", "199.50")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{orderA.ID, orderB.ID})
	require.NoError(t, err)

	assert.Equal(t, client.ID, bill.ClientID)
	assert.Equal(t, 2, bill.OrderCount)
	assert.True(t, bill.TotalAmount.Equal(dec("300")))
	assert.True(t, bill.PaidAmount.IsZero())
	assert.True(t, bill.RemainingAmount.Equal(dec("300")))
	assert.Equal(t, model.BillPayStatusUnpaid, bill.BillStatus)

	// 订单翻转到已开账单
	var got model.Order
	require.NoError(t, db.First(&got, orderA.ID).Error)
	assert.Equal(t, model.BillStatusBilled, got.BillStatus)

	// 出站事件同事务落库
	var outbox []model.OutboxMessage
	require.NoError(t, db.Find(&outbox).Error)
	require.Len(t, outbox, 1)
	assert.Equal(t, model.BillingEventBillCreated, outbox[0].EventType)
	assert.Equal(t, model.OutboxStatusPending, outbox[0].Status)
}

func TestCreateBillConcurrentSameOrder(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	// 先占住客户锁，让两次创建都完成前置校验后再依次进入事务
	hold := lock.NewClientBillingLock(svc.redisClient, client.ID)
	ok, err := hold.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBill(context.Background(), nil, []int64{order.ID})
		}(i)
	}

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, hold.Unlock(context.Background()))
	wg.Wait()

	// 同一订单只能进一张账单
	var bills int64
	require.NoError(t, db.Model(&model.Bill{}).Count(&bills).Error)
	assert.Equal(t, int64(1), bills)

	var failed int
	for _, err := range errs {
		if err != nil {
			assert.True(t, apperr.IsValidation(err))
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.BillStatusBilled, got.BillStatus)
}

func TestAddPaymentSequence(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{order.ID})
	require.NoError(t, err)

	// 付 60 -> partial
	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("60"), time.Now(), "")
	require.NoError(t, err)

	var got model.Bill
	require.NoError(t, db.First(&got, bill.ID).Error)
	assert.True(t, got.PaidAmount.Equal(dec("60")))
	assert.True(t, got.RemainingAmount.Equal(dec("40")))
	assert.Equal(t, model.BillPayStatusPartial, got.BillStatus)

	// 再付 40 -> paid
	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("40"), time.Now(), "")
	require.NoError(t, err)

	require.NoError(t, db.First(&got, bill.ID).Error)
	assert.True(t, got.PaidAmount.Equal(dec("100")))
	assert.True(t, got.RemainingAmount.IsZero())
	assert.Equal(t, model.BillPayStatusPaid, got.BillStatus)

	// 剩余为 0，再付 1 被拒
	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("1"), time.Now(), "")
	assert.True(t, apperr.IsValidation(err))
}

func TestAddPaymentValidation(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{order.ID})
	require.NoError(t, err)

	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("0"), time.Now(), "")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("-5"), time.Now(), "")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("100.01"), time.Now(), "")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.AddPayment(context.Background(), nil, bill.ID+999, dec("10"), time.Now(), "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeletePaymentRecomputes(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{order.ID})
	require.NoError(t, err)

	p30, err := svc.AddPayment(context.Background(), nil, bill.ID, dec("30"), time.Now(), "")
	require.NoError(t, err)
	p70, err := svc.AddPayment(context.Background(), nil, bill.ID, dec("70"), time.Now(), "")
	require.NoError(t, err)

	// 删 70 -> partial 30
	updated, err := svc.DeletePayment(context.Background(), nil, p70.ID)
	require.NoError(t, err)
	assert.True(t, updated.PaidAmount.Equal(dec("30")))
	assert.True(t, updated.RemainingAmount.Equal(dec("70")))
	assert.Equal(t, model.BillPayStatusPartial, updated.BillStatus)

	// 删 30 -> unpaid
	updated, err = svc.DeletePayment(context.Background(), nil, p30.ID)
	require.NoError(t, err)
	assert.True(t, updated.PaidAmount.IsZero())
	assert.True(t, updated.RemainingAmount.Equal(dec("100")))
	assert.Equal(t, model.BillPayStatusUnpaid, updated.BillStatus)

	_, err = svc.DeletePayment(context.Background(), nil, p30.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteBillWithPaymentsRefused(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{order.ID})
	require.NoError(t, err)
	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("10"), time.Now(), "")
	require.NoError(t, err)

	err = svc.DeleteBill(context.Background(), nil, bill.ID)
	assert.True(t, apperr.IsValidation(err))

	// 账单和订单不受影响
	var gotBill model.Bill
	require.NoError(t, db.First(&gotBill, bill.ID).Error)
	var gotOrder model.Order
	require.NoError(t, db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, model.BillStatusBilled, gotOrder.BillStatus)
}

func TestDeleteBillRevertsOrders(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	orderA := seedOrder(t, db, client.ID, "ORD001", "100")
	orderB := seedOrder(t, db, client.ID, "ORD002", "200")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{orderA.ID, orderB.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBill(context.Background(), nil, bill.ID))

	var count int64
	require.NoError(t, db.Model(&model.Bill{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var orders []model.Order
	require.NoError(t, db.Find(&orders).Error)
	for _, o := range orders {
		assert.Equal(t, model.BillStatusUnbilled, o.BillStatus)
	}

	err = svc.DeleteBill(context.Background(), nil, bill.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetBillResolvesOrders(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	orderA := seedOrder(t, db, client.ID, "ORD001", "100")
	orderB := seedOrder(t, db, client.ID, "ORD002", "200")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{orderA.ID, orderB.ID})
	require.NoError(t, err)

	detail, err := svc.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Orders, 2)
	assert.Equal(t, bill.BillNo, detail.BillNo)
}

func TestBillAuditTrail(t *testing.T) {
	svc, db := newBillService(t)
	client := seedClient(t, db, "客户A")
	order := seedOrder(t, db, client.ID, "ORD001", "100")

	bill, err := svc.CreateBill(context.Background(), nil, []int64{order.ID})
	require.NoError(t, err)

	var logs []model.AuditLog
	require.NoError(t, db.Order("id DESC").Find(&logs).Error)
	require.NotEmpty(t, logs)
	assert.Equal(t, model.AuditActionCreate, logs[0].Action)
	assert.Equal(t, model.EntityBill, logs[0].Entity)
	assert.Equal(t, "账单 - 1个订单", logs[0].EntityID)

	_, err = svc.AddPayment(context.Background(), nil, bill.ID, dec("50.5"), time.Now(), "")
	require.NoError(t, err)

	require.NoError(t, db.Order("id DESC").Find(&logs).Error)
	assert.Equal(t, model.EntityPayment, logs[0].Entity)
	assert.Equal(t, "付款记录 - $50.5", logs[0].EntityID)
}
