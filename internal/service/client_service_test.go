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

func newClientService(t *testing.T) (*ClientService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	return NewClientService(db, zap.NewNop()), db
}

func TestCreateClientDuplicateName(t *testing.T) {
	svc, _ := newClientService(t)

	_, err := svc.CreateClient(context.Background(), nil, "客户A", "")
	require.NoError(t, err)

	_, err = svc.CreateClient(context.Background(), nil, "客户A", "")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "Client name already exists", err.Error())
}

func TestUpdateClientRenameConflict(t *testing.T) {
	svc, _ := newClientService(t)

	a, err := svc.CreateClient(context.Background(), nil, "客户A", "")
	require.NoError(t, err)
	_, err = svc.CreateClient(context.Background(), nil, "客户B", "")
	require.NoError(t, err)

	_, err = svc.UpdateClient(context.Background(), nil, a.ID, map[string]interface{}{
		"name": "客户B",
	})
	assert.True(t, apperr.IsValidation(err))

	updated, err := svc.UpdateClient(context.Background(), nil, a.ID, map[string]interface{}{
		"name": "客户A更名",
	})
	require.NoError(t, err)
	assert.Equal(t, "客户A更名", updated.Name)
}

func TestDeleteClientNeedsConfirm(t *testing.T) {
	svc, db := newClientService(t)
	client := seedClient(t, db, "客户A")
	seedPassport(t, db, client.ID, "E1234567", "张三")
	seedPassport(t, db, client.ID, "E7654321", "张三")
	require.NoError(t, db.Create(&model.Visa{
		PassportNo: "E1234567",
		Country:    "日本",
		VisaName:   "旅游签",
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		Status:     "active",
	}).Error)

	err := svc.DeleteClient(context.Background(), nil, client.ID, false)
	require.True(t, apperr.IsConflict(err))

	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "NEED_CONFIRM", conflict.Details["code"])
	assert.Equal(t, int64(2), conflict.Details["passports"])
	assert.Equal(t, int64(1), conflict.Details["visas"])

	// 客户还在
	_, err = svc.GetClient(context.Background(), client.ID)
	require.NoError(t, err)
}

func TestDeleteClientCascade(t *testing.T) {
	svc, db := newClientService(t)
	client := seedClient(t, db, "客户A")
	other := seedClient(t, db, "客户B")
	seedPassport(t, db, client.ID, "E1234567", "张三")
	seedPassport(t, db, other.ID, "E9999999", "王五")
	require.NoError(t, db.Create(&model.Visa{
		PassportNo: "E1234567",
		Country:    "日本",
		VisaName:   "旅游签",
		Status:     "active",
	}).Error)
	require.NoError(t, db.Create(&model.Visa{
		PassportNo: "E9999999",
		Country:    "韩国",
		VisaName:   "商务签",
		Status:     "active",
	}).Error)

	require.NoError(t, svc.DeleteClient(context.Background(), nil, client.ID, true))

	_, err := svc.GetClient(context.Background(), client.ID)
	assert.True(t, apperr.IsNotFound(err))

	var passports, visas int64
	require.NoError(t, db.Model(&model.Passport{}).Count(&passports).Error)
	require.NoError(t, db.Model(&model.Visa{}).Count(&visas).Error)
	// 别的客户的数据不受影响
	assert.Equal(t, int64(1), passports)
	assert.Equal(t, int64(1), visas)
}

func TestDeleteClientWithoutPassports(t *testing.T) {
	svc, db := newClientService(t)
	client := seedClient(t, db, "客户A")

	require.NoError(t, svc.DeleteClient(context.Background(), nil, client.ID, false))

	_, err := svc.GetClient(context.Background(), client.ID)
	assert.True(t, apperr.IsNotFound(err))
}
