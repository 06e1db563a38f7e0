package repository

import (
	"context"
	"errors"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"gorm.io/gorm"
)

// BillFilter 账单列表过滤条件，Q 匹配客户名
type BillFilter struct {
	Q          string
	ClientID   *int64
	BillStatus string
	Page       int
	PageSize   int
}

type BillRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) Create(ctx context.Context, tx *gorm.DB, bill *model.Bill) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(bill).Error
}

func (r *BillRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Bill, error) {
	if tx == nil {
		tx = r.db
	}
	var bill model.Bill
	err := tx.WithContext(ctx).First(&bill, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Bill not found")
		}
		return nil, err
	}
	return &bill, nil
}

func (r *BillRepository) GetByIDWithPayments(ctx context.Context, id int64) (*model.Bill, error) {
	var bill model.Bill
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date DESC")
		}).
		First(&bill, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Bill not found")
		}
		return nil, err
	}
	return &bill, nil
}

func (r *BillRepository) List(ctx context.Context, filter BillFilter) ([]*model.Bill, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Bill{})

	if filter.Q != "" {
		like := "%" + filter.Q + "%"
		query = query.
			Select("bill.*").
			Joins("LEFT JOIN client ON client.id = bill.client_id").
			Where("client.name LIKE ?", like)
	}
	if filter.ClientID != nil {
		query = query.Where("bill.client_id = ?", *filter.ClientID)
	}
	if filter.BillStatus != "" {
		query = query.Where("bill.bill_status = ?", filter.BillStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bills []*model.Bill
	err := query.
		Preload("Client").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date DESC")
		}).
		Order("bill.created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&bills).Error
	return bills, total, err
}

// UpdateAmounts 更新账单金额与状态，必须在事务内与付款变动一起提交
func (r *BillRepository) UpdateAmounts(ctx context.Context, tx *gorm.DB, id int64, updates map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.Bill{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *BillRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Delete(&model.Bill{}, id).Error
}
