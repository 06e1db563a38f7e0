package service

import (
	"context"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductInput 创建产品的输入
type ProductInput struct {
	Name       string          `json:"name" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	CostPrice  decimal.Decimal `json:"costPrice"`
	SupplierID int64           `json:"supplierId" binding:"required"`
	Status     string          `json:"status"`
	Remark     string          `json:"remark"`
}

// ProductService 产品服务
type ProductService struct {
	logger *zap.Logger

	productRepo  *repository.ProductRepository
	supplierRepo *repository.SupplierRepository
	orderRepo    *repository.OrderRepository
	auditSvc     *AuditService
}

func NewProductService(db *gorm.DB, logger *zap.Logger) *ProductService {
	return &ProductService{
		logger:       logger,
		productRepo:  repository.NewProductRepository(db),
		supplierRepo: repository.NewSupplierRepository(db),
		orderRepo:    repository.NewOrderRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

// CreateProduct 新建产品，供应商必须存在
func (s *ProductService) CreateProduct(ctx context.Context, userID *int64, input ProductInput) (*model.Product, error) {
	if _, err := s.supplierRepo.GetByID(ctx, input.SupplierID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.ProductStatusActive
	}

	product := &model.Product{
		Name:       input.Name,
		Price:      input.Price,
		CostPrice:  input.CostPrice,
		SupplierID: input.SupplierID,
		Status:     status,
		Remark:     input.Remark,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("产品已创建",
		zap.String("name", product.Name),
		zap.Int64("supplier_id", product.SupplierID))

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntityProduct, product); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return product, nil
}

// UpdateProduct 更新产品
func (s *ProductService) UpdateProduct(ctx context.Context, userID *int64, id int64, updates map[string]interface{}) (*model.Product, error) {
	before, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if supplierID, ok := updates["supplier_id"].(int64); ok && supplierID != before.SupplierID {
		if _, err := s.supplierRepo.GetByID(ctx, supplierID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	after, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityProduct, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// DeleteProduct 删除产品，被订单引用的产品不允许删
func (s *ProductService) DeleteProduct(ctx context.Context, userID *int64, id int64) error {
	before, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.orderRepo.CountItemsByProductID(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validationf("该产品已被订单使用，无法删除。请先删除相关订单或修改订单中的产品。")
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("产品已删除", zap.String("name", before.Name))

	if err := s.auditSvc.RecordDelete(ctx, userID, model.EntityProduct, before); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return nil
}

// GetProduct 产品详情
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// ListProducts 分页查询产品
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, int64, error) {
	return s.productRepo.List(ctx, filter)
}
