package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestDeriveBillStatus(t *testing.T) {
	assert.Equal(t, BillPayStatusUnpaid, DeriveBillStatus(d("100"), d("0")))
	assert.Equal(t, BillPayStatusPartial, DeriveBillStatus(d("100"), d("0.01")))
	assert.Equal(t, BillPayStatusPartial, DeriveBillStatus(d("100"), d("99.99")))
	assert.Equal(t, BillPayStatusPaid, DeriveBillStatus(d("100"), d("100")))
	assert.Equal(t, BillPayStatusPaid, DeriveBillStatus(d("100"), d("100.00")))
	assert.Equal(t, BillPayStatusPaid, DeriveBillStatus(d("0"), d("0")))
}

func TestDeriveOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPending, DeriveOrderStatus(nil))

	assert.Equal(t, OrderStatusPending, DeriveOrderStatus([]OrderItem{
		{Status: OrderStatusPending},
		{Status: OrderStatusCompleted},
	}))

	// 任一处理中整单处理中，优先于其它状态
	assert.Equal(t, OrderStatusProcessing, DeriveOrderStatus([]OrderItem{
		{Status: OrderStatusCompleted},
		{Status: OrderStatusProcessing},
		{Status: OrderStatusPending},
	}))

	assert.Equal(t, OrderStatusCompleted, DeriveOrderStatus([]OrderItem{
		{Status: OrderStatusCompleted},
		{Status: OrderStatusCompleted},
	}))
}

func TestInt64ListRoundTrip(t *testing.T) {
	v, err := Int64List{1, 2, 3}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", v)

	var list Int64List
	require.NoError(t, list.Scan("[4,5]"))
	assert.Equal(t, Int64List{4, 5}, list)

	require.NoError(t, list.Scan([]byte("[6]")))
	assert.Equal(t, Int64List{6}, list)

	require.NoError(t, list.Scan(nil))
	assert.Empty(t, list)

	var nilList Int64List
	v, err = nilList.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	assert.Error(t, list.Scan(42))
}
