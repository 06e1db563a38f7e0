package service

import (
	"context"
	"strings"
	"time"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PassportInput 创建护照的输入
type PassportInput struct {
	PassportNo  string    `json:"passportNo" binding:"required"`
	ClientID    int64     `json:"clientId" binding:"required"`
	Country     string    `json:"country" binding:"required"`
	FullName    string    `json:"fullName" binding:"required"`
	Gender      string    `json:"gender"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	IssueDate   time.Time `json:"issueDate"`
	ExpiryDate  time.Time `json:"expiryDate"`
	InStock     *bool     `json:"inStock"`
	IsFollowing *bool     `json:"isFollowing"`
	Remark      *string   `json:"remark"`
}

// PassportService 护照服务
// 护照以护照号为业务主键，visa 通过护照号关联
type PassportService struct {
	logger *zap.Logger

	passportRepo *repository.PassportRepository
	clientRepo   *repository.ClientRepository
	auditSvc     *AuditService
}

func NewPassportService(db *gorm.DB, logger *zap.Logger) *PassportService {
	return &PassportService{
		logger:       logger,
		passportRepo: repository.NewPassportRepository(db),
		clientRepo:   repository.NewClientRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

// CreatePassport 新建护照，护照号已存在时返回冲突并带上占用客户名
func (s *PassportService) CreatePassport(ctx context.Context, userID *int64, input PassportInput) (*model.Passport, error) {
	existing, err := s.passportRepo.GetByNo(ctx, input.PassportNo)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		details := map[string]interface{}{
			"code":       "PASSPORT_EXISTS",
			"passportNo": input.PassportNo,
		}
		if existing.Client != nil {
			details["clientName"] = existing.Client.Name
		}
		return nil, apperr.Conflict("护照号已存在", details)
	}

	if _, err := s.clientRepo.GetByID(ctx, input.ClientID); err != nil {
		return nil, err
	}

	inStock := true
	if input.InStock != nil {
		inStock = *input.InStock
	}
	remark := ""
	if input.Remark != nil {
		remark = *input.Remark
	}
	// 不在库的护照必须写明去向
	if !inStock && strings.TrimSpace(remark) == "" {
		return nil, apperr.Validationf("remark required when inStock is false")
	}

	isFollowing := false
	if input.IsFollowing != nil {
		isFollowing = *input.IsFollowing
	}

	passport := &model.Passport{
		PassportNo:  input.PassportNo,
		ClientID:    input.ClientID,
		Country:     input.Country,
		FullName:    input.FullName,
		Gender:      input.Gender,
		DateOfBirth: input.DateOfBirth,
		IssueDate:   input.IssueDate,
		ExpiryDate:  input.ExpiryDate,
		InStock:     inStock,
		IsFollowing: isFollowing,
		Status:      model.PassportStatusActive,
		Remark:      remark,
	}
	if err := s.passportRepo.Create(ctx, passport); err != nil {
		return nil, err
	}

	s.logger.Info("护照已登记",
		zap.String("passport_no", passport.PassportNo),
		zap.Int64("client_id", passport.ClientID))

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntityPassport, passport); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return passport, nil
}

// UpdatePassport 局部更新；把 inStock 改成 false 时必须已有或同时给出备注
func (s *PassportService) UpdatePassport(ctx context.Context, userID *int64, passportNo string, updates map[string]interface{}) (*model.Passport, error) {
	before, err := s.passportRepo.GetByNo(ctx, passportNo)
	if err != nil {
		return nil, err
	}

	if v, ok := updates["in_stock"]; ok {
		if inStock, isBool := v.(bool); isBool && !inStock {
			remark := strings.TrimSpace(before.Remark)
			if incoming, ok := updates["remark"].(string); ok {
				remark = strings.TrimSpace(incoming)
			}
			if remark == "" {
				return nil, apperr.Validationf("remark required when inStock is false")
			}
		}
	}

	if err := s.passportRepo.Update(ctx, passportNo, updates); err != nil {
		return nil, err
	}

	after, err := s.passportRepo.GetByNo(ctx, passportNo)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityPassport, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// DeletePassport 删除护照
func (s *PassportService) DeletePassport(ctx context.Context, userID *int64, passportNo string) error {
	before, err := s.passportRepo.GetByNoWithVisas(ctx, passportNo)
	if err != nil {
		return err
	}

	if err := s.passportRepo.Delete(ctx, passportNo); err != nil {
		return err
	}

	s.logger.Info("护照已删除", zap.String("passport_no", passportNo))

	if err := s.auditSvc.RecordDelete(ctx, userID, model.EntityPassport, before); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return nil
}

// GetPassport 护照详情，带客户和签证
func (s *PassportService) GetPassport(ctx context.Context, passportNo string) (*model.Passport, error) {
	return s.passportRepo.GetByNoWithVisas(ctx, passportNo)
}

// ListPassports 按条件查询护照
func (s *PassportService) ListPassports(ctx context.Context, filter repository.PassportFilter) ([]*model.Passport, error) {
	return s.passportRepo.List(ctx, filter)
}
