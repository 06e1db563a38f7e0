package service

import (
	"context"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SupplierService 供应商服务
type SupplierService struct {
	logger *zap.Logger

	supplierRepo *repository.SupplierRepository
	productRepo  *repository.ProductRepository
	auditSvc     *AuditService
}

func NewSupplierService(db *gorm.DB, logger *zap.Logger) *SupplierService {
	return &SupplierService{
		logger:       logger,
		supplierRepo: repository.NewSupplierRepository(db),
		productRepo:  repository.NewProductRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

// CreateSupplier 新建供应商
func (s *SupplierService) CreateSupplier(ctx context.Context, userID *int64, name, remark string) (*model.Supplier, error) {
	supplier := &model.Supplier{Name: name, Remark: remark}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.Info("供应商已创建", zap.String("name", name))

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntitySupplier, supplier); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return supplier, nil
}

// UpdateSupplier 更新供应商
func (s *SupplierService) UpdateSupplier(ctx context.Context, userID *int64, id int64, updates map[string]interface{}) (*model.Supplier, error) {
	before, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.supplierRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	after, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntitySupplier, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// DeleteSupplier 删除供应商，名下还有产品时不允许删
func (s *SupplierService) DeleteSupplier(ctx context.Context, userID *int64, id int64) error {
	before, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.productRepo.CountBySupplierID(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validationf("该供应商下还有产品，无法删除。请先删除或转移相关产品。")
	}

	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("供应商已删除", zap.String("name", before.Name))

	if err := s.auditSvc.RecordDelete(ctx, userID, model.EntitySupplier, before); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return nil
}

// GetSupplier 供应商详情，带产品列表
func (s *SupplierService) GetSupplier(ctx context.Context, id int64) (*model.Supplier, error) {
	return s.supplierRepo.GetByIDWithProducts(ctx, id)
}

// ListSuppliers 分页查询供应商
func (s *SupplierService) ListSuppliers(ctx context.Context, q string, page, pageSize int) ([]*model.Supplier, int64, error) {
	return s.supplierRepo.List(ctx, q, page, pageSize)
}
