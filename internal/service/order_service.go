package service

import (
	"context"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"
	"visacenter/pkg/idgen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderItemInput 创建或更新订单时的明细输入
type OrderItemInput struct {
	ProductID int64           `json:"productId" binding:"required"`
	SalePrice decimal.Decimal `json:"salePrice"`
	CostPrice decimal.Decimal `json:"costPrice"`
	Status    string          `json:"status"`
	Remark    string          `json:"remark"`
}

// OrderService 订单服务
// 订单冗余客户名、护照号、国家，护照后续变动不回写历史订单
type OrderService struct {
	db     *gorm.DB
	logger *zap.Logger

	orderRepo    *repository.OrderRepository
	passportRepo *repository.PassportRepository
	productRepo  *repository.ProductRepository
	auditSvc     *AuditService
}

func NewOrderService(db *gorm.DB, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:           db,
		logger:       logger,
		orderRepo:    repository.NewOrderRepository(db),
		passportRepo: repository.NewPassportRepository(db),
		productRepo:  repository.NewProductRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

// validateItems 校验明细非空且产品都存在，返回金额与成本合计
func (s *OrderService) validateItems(ctx context.Context, items []OrderItemInput) (decimal.Decimal, decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, decimal.Zero, apperr.Validationf("Order must have at least one item")
	}

	productIDs := make([]int64, 0, len(items))
	seen := make(map[int64]struct{})
	for _, item := range items {
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			productIDs = append(productIDs, item.ProductID)
		}
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if len(products) != len(productIDs) {
		return decimal.Zero, decimal.Zero, apperr.Validationf("Some products not found")
	}

	totalAmount := decimal.Zero
	totalCost := decimal.Zero
	for _, item := range items {
		totalAmount = totalAmount.Add(item.SalePrice)
		totalCost = totalCost.Add(item.CostPrice)
	}
	return totalAmount, totalCost, nil
}

func buildItems(orderID int64, inputs []OrderItemInput) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		status := input.Status
		if status == "" {
			status = model.OrderStatusPending
		}
		items = append(items, model.OrderItem{
			OrderID:   orderID,
			ProductID: input.ProductID,
			SalePrice: input.SalePrice,
			CostPrice: input.CostPrice,
			Status:    status,
			Remark:    input.Remark,
		})
	}
	return items
}

// CreateOrder 按护照创建订单，客户信息从护照冗余进订单
func (s *OrderService) CreateOrder(ctx context.Context, userID *int64, passportNo string, items []OrderItemInput, remark string) (*model.Order, error) {
	passport, err := s.passportRepo.GetByNo(ctx, passportNo)
	if err != nil {
		return nil, err
	}

	totalAmount, totalCost, err := s.validateItems(ctx, items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNo:        idgen.GenerateOrderNo(),
		PassportNo:     passport.PassportNo,
		ClientID:       passport.ClientID,
		CustomerName:   passport.FullName,
		PassportNumber: passport.PassportNo,
		Country:        passport.Country,
		TotalAmount:    totalAmount,
		TotalCost:      totalCost,
		OrderStatus:    model.OrderStatusPending,
		BillStatus:     model.BillStatusUnbilled,
		Remark:         remark,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}
		orderItems := buildItems(order.ID, items)
		if err := s.orderRepo.CreateItems(ctx, tx, orderItems); err != nil {
			return err
		}
		order.OrderItems = orderItems
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("订单已创建",
		zap.String("order_no", order.OrderNo),
		zap.String("passport_no", passportNo),
		zap.Int("item_count", len(items)))

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntityOrder, order); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return order, nil
}

// UpdateOrder 整体替换订单明细并重算金额，订单状态由明细状态推导
func (s *OrderService) UpdateOrder(ctx context.Context, userID *int64, id int64, items []OrderItemInput, remark string) (*model.Order, error) {
	before, err := s.orderRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		return nil, err
	}

	totalAmount, totalCost, err := s.validateItems(ctx, items)
	if err != nil {
		return nil, err
	}

	var updated *model.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.DeleteItemsByOrderID(ctx, tx, id); err != nil {
			return err
		}

		orderItems := buildItems(id, items)
		if err := s.orderRepo.CreateItems(ctx, tx, orderItems); err != nil {
			return err
		}

		orderStatus := model.DeriveOrderStatus(orderItems)
		if err := s.orderRepo.Update(ctx, tx, id, map[string]interface{}{
			"total_amount": totalAmount,
			"total_cost":   totalCost,
			"order_status": orderStatus,
			"remark":       remark,
		}); err != nil {
			return err
		}

		order := *before
		order.TotalAmount = totalAmount
		order.TotalCost = totalCost
		order.OrderStatus = orderStatus
		order.Remark = remark
		order.OrderItems = orderItems
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityOrder, before, updated); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return updated, nil
}

// UpdateStatus 手动调整订单状态
func (s *OrderService) UpdateStatus(ctx context.Context, userID *int64, id int64, orderStatus string) (*model.Order, error) {
	switch orderStatus {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusCompleted:
	default:
		return nil, apperr.Validationf("无效的订单状态: %s", orderStatus)
	}

	before, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Update(ctx, nil, id, map[string]interface{}{
		"order_status": orderStatus,
	}); err != nil {
		return nil, err
	}

	after := *before
	after.OrderStatus = orderStatus

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityOrder, before, &after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return &after, nil
}

// DeleteOrder 删除订单及其明细，已生成账单的订单不允许删
func (s *OrderService) DeleteOrder(ctx context.Context, userID *int64, id int64) error {
	before, err := s.orderRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		return err
	}

	if before.BillStatus == model.BillStatusBilled {
		return apperr.Validationf("该订单已生成账单，无法删除。请先删除相关账单。")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.DeleteItemsByOrderID(ctx, tx, id); err != nil {
			return err
		}
		return s.orderRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("订单已删除", zap.String("order_no", before.OrderNo))

	if err := s.auditSvc.RecordDelete(ctx, userID, model.EntityOrder, before); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return nil
}

// GetOrder 订单详情，带明细、产品和客户
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.orderRepo.GetByIDWithDetail(ctx, id)
}

// ListOrders 分页查询订单
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, int64, error) {
	return s.orderRepo.List(ctx, filter)
}
