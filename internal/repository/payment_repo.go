package repository

import (
	"context"
	"errors"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Payment not found")
		}
		return nil, err
	}
	return &payment, nil
}

// ListByBillID 取账单下全部付款，删付款后的重算要在事务内用它读剩余付款
func (r *PaymentRepository) ListByBillID(ctx context.Context, tx *gorm.DB, billID int64) ([]model.Payment, error) {
	if tx == nil {
		tx = r.db
	}
	var payments []model.Payment
	err := tx.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("payment_date DESC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) CountByBillID(ctx context.Context, tx *gorm.DB, billID int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.Payment{}).
		Where("bill_id = ?", billID).
		Count(&count).Error
	return count, err
}

func (r *PaymentRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Delete(&model.Payment{}, id).Error
}
