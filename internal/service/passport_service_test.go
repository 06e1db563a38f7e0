package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newPassportService(t *testing.T) (*PassportService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	return NewPassportService(db, zap.NewNop()), db
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestCreatePassport(t *testing.T) {
	svc, db := newPassportService(t)
	client := seedClient(t, db, "客户A")

	passport, err := svc.CreatePassport(context.Background(), nil, PassportInput{
		PassportNo: "E1234567",
		ClientID:   client.ID,
		Country:    "中国",
		FullName:   "张三",
		ExpiryDate: time.Now().AddDate(10, 0, 0),
	})
	require.NoError(t, err)

	assert.True(t, passport.InStock)
	assert.False(t, passport.IsFollowing)
	assert.Equal(t, model.PassportStatusActive, passport.Status)
}

func TestCreatePassportConflictCarriesClientName(t *testing.T) {
	svc, db := newPassportService(t)
	clientA := seedClient(t, db, "客户A")
	clientB := seedClient(t, db, "客户B")
	seedPassport(t, db, clientA.ID, "E1234567", "张三")

	_, err := svc.CreatePassport(context.Background(), nil, PassportInput{
		PassportNo: "E1234567",
		ClientID:   clientB.ID,
		Country:    "中国",
		FullName:   "李四",
	})
	require.True(t, apperr.IsConflict(err))

	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "PASSPORT_EXISTS", conflict.Details["code"])
	assert.Equal(t, "E1234567", conflict.Details["passportNo"])
	assert.Equal(t, "客户A", conflict.Details["clientName"])
}

func TestCreatePassportRemarkRequiredWhenOutOfStock(t *testing.T) {
	svc, db := newPassportService(t)
	client := seedClient(t, db, "客户A")

	_, err := svc.CreatePassport(context.Background(), nil, PassportInput{
		PassportNo: "E1234567",
		ClientID:   client.ID,
		Country:    "中国",
		FullName:   "张三",
		InStock:    boolPtr(false),
		Remark:     strPtr("   "),
	})
	assert.True(t, apperr.IsValidation(err))

	passport, err := svc.CreatePassport(context.Background(), nil, PassportInput{
		PassportNo: "E1234567",
		ClientID:   client.ID,
		Country:    "中国",
		FullName:   "张三",
		InStock:    boolPtr(false),
		Remark:     strPtr("送使馆办签"),
	})
	require.NoError(t, err)
	assert.False(t, passport.InStock)
	assert.Equal(t, "送使馆办签", passport.Remark)
}

func TestUpdatePassportOutOfStockNeedsRemark(t *testing.T) {
	svc, db := newPassportService(t)
	client := seedClient(t, db, "客户A")
	seedPassport(t, db, client.ID, "E1234567", "张三")

	// 既有备注为空又没同时给出
	_, err := svc.UpdatePassport(context.Background(), nil, "E1234567", map[string]interface{}{
		"in_stock": false,
	})
	assert.True(t, apperr.IsValidation(err))

	updated, err := svc.UpdatePassport(context.Background(), nil, "E1234567", map[string]interface{}{
		"in_stock": false,
		"remark":   "客户借走",
	})
	require.NoError(t, err)
	assert.False(t, updated.InStock)
	assert.Equal(t, "客户借走", updated.Remark)

	// 已有备注时允许直接改出库
	updated, err = svc.UpdatePassport(context.Background(), nil, "E1234567", map[string]interface{}{
		"in_stock": true,
	})
	require.NoError(t, err)
	updated, err = svc.UpdatePassport(context.Background(), nil, "E1234567", map[string]interface{}{
		"in_stock": false,
	})
	require.NoError(t, err)
	assert.False(t, updated.InStock)
}

func TestDeletePassport(t *testing.T) {
	svc, db := newPassportService(t)
	client := seedClient(t, db, "客户A")
	seedPassport(t, db, client.ID, "E1234567", "张三")

	require.NoError(t, svc.DeletePassport(context.Background(), nil, "E1234567"))

	_, err := svc.GetPassport(context.Background(), "E1234567")
	assert.True(t, apperr.IsNotFound(err))

	err = svc.DeletePassport(context.Background(), nil, "E1234567")
	assert.True(t, apperr.IsNotFound(err))
}
