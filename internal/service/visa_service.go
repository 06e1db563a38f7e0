package service

import (
	"context"
	"time"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VisaInput 创建签证的输入
type VisaInput struct {
	PassportNo string    `json:"passportNo" binding:"required"`
	Country    string    `json:"country" binding:"required"`
	VisaName   string    `json:"visaName" binding:"required"`
	ExpiryDate time.Time `json:"expiryDate"`
}

// VisaService 签证服务，签证挂在护照号下
type VisaService struct {
	logger *zap.Logger

	visaRepo     *repository.VisaRepository
	passportRepo *repository.PassportRepository
	auditSvc     *AuditService
}

func NewVisaService(db *gorm.DB, logger *zap.Logger) *VisaService {
	return &VisaService{
		logger:       logger,
		visaRepo:     repository.NewVisaRepository(db),
		passportRepo: repository.NewPassportRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

// CreateVisa 新建签证，护照必须已登记
func (s *VisaService) CreateVisa(ctx context.Context, userID *int64, input VisaInput) (*model.Visa, error) {
	if _, err := s.passportRepo.GetByNo(ctx, input.PassportNo); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validationf("passport not found")
		}
		return nil, err
	}

	visa := &model.Visa{
		PassportNo: input.PassportNo,
		Country:    input.Country,
		VisaName:   input.VisaName,
		ExpiryDate: input.ExpiryDate,
		Status:     model.PassportStatusActive,
	}
	if err := s.visaRepo.Create(ctx, visa); err != nil {
		return nil, err
	}

	s.logger.Info("签证已登记",
		zap.String("passport_no", visa.PassportNo),
		zap.String("visa_name", visa.VisaName))

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntityVisa, visa); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return visa, nil
}

// UpdateVisa 局部更新签证
func (s *VisaService) UpdateVisa(ctx context.Context, userID *int64, id int64, updates map[string]interface{}) (*model.Visa, error) {
	before, err := s.visaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.visaRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	after, err := s.visaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityVisa, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// DeleteVisa 删除签证
func (s *VisaService) DeleteVisa(ctx context.Context, userID *int64, id int64) error {
	before, err := s.visaRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.visaRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.auditSvc.RecordDelete(ctx, userID, model.EntityVisa, before); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return nil
}

// GetVisa 签证详情
func (s *VisaService) GetVisa(ctx context.Context, id int64) (*model.Visa, error) {
	return s.visaRepo.GetByID(ctx, id)
}

// ListVisas 按条件查询签证
func (s *VisaService) ListVisas(ctx context.Context, filter repository.VisaFilter) ([]*model.Visa, error) {
	return s.visaRepo.List(ctx, filter)
}
