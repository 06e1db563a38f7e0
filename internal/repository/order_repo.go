package repository

import (
	"context"
	"errors"

	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"gorm.io/gorm"
)

// OrderFilter 订单列表过滤条件
type OrderFilter struct {
	Q           string
	ClientID    *int64
	OrderStatus string
	BillStatus  string
	Page        int
	PageSize    int
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) CreateItems(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *OrderRepository) DeleteItemsByOrderID(ctx context.Context, tx *gorm.DB, orderID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByIDWithDetail(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Passport").
		Preload("OrderItems").
		Preload("OrderItems.Product").
		Preload("OrderItems.Product.Supplier").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByIDWithItems(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("OrderItems").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Order not found")
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDs 按 id 集合取订单，调用方自行核对返回数量
func (r *OrderRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) GetByIDsWithDetail(ctx context.Context, ids []int64) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Preload("OrderItems.Product").
		Preload("OrderItems.Product.Supplier").
		Where("id IN ?", ids).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.Q != "" {
		like := "%" + filter.Q + "%"
		query = query.
			Select("sale_order.*").
			Joins("LEFT JOIN client ON client.id = sale_order.client_id").
			Where("sale_order.customer_name LIKE ? OR sale_order.passport_number LIKE ? OR sale_order.country LIKE ? OR client.name LIKE ?",
				like, like, like, like)
	}
	if filter.ClientID != nil {
		query = query.Where("sale_order.client_id = ?", *filter.ClientID)
	}
	if filter.OrderStatus != "" {
		query = query.Where("sale_order.order_status = ?", filter.OrderStatus)
	}
	if filter.BillStatus != "" {
		query = query.Where("sale_order.bill_status = ?", filter.BillStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := query.
		Preload("Client").
		Preload("Passport").
		Preload("OrderItems").
		Preload("OrderItems.Product").
		Order("sale_order.created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&orders).Error
	return orders, total, err
}

// UpdateBillStatus 批量流转订单的账单状态，开单/删单时在事务内调用
// 只更新处于 from 状态的行并返回实际行数，调用方据此识别锁等待期间的并发开单
func (r *OrderRepository) UpdateBillStatus(ctx context.Context, tx *gorm.DB, ids []int64, from, to string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Order{}).
		Where("id IN ? AND bill_status = ?", ids, from).
		Update("bill_status", to)
	return result.RowsAffected, result.Error
}

func (r *OrderRepository) Update(ctx context.Context, tx *gorm.DB, id int64, updates map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("Order not found")
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Delete(&model.Order{}, id).Error
}

func (r *OrderRepository) CountItemsByProductID(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
