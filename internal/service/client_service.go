package service

import (
	"context"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientService 客户服务
type ClientService struct {
	db     *gorm.DB
	logger *zap.Logger

	clientRepo   *repository.ClientRepository
	passportRepo *repository.PassportRepository
	visaRepo     *repository.VisaRepository
	auditSvc     *AuditService
}

func NewClientService(db *gorm.DB, logger *zap.Logger) *ClientService {
	return &ClientService{
		db:           db,
		logger:       logger,
		clientRepo:   repository.NewClientRepository(db),
		passportRepo: repository.NewPassportRepository(db),
		visaRepo:     repository.NewVisaRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

// CreateClient 新建客户，名称唯一
func (s *ClientService) CreateClient(ctx context.Context, userID *int64, name, remark string) (*model.Client, error) {
	existing, err := s.clientRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validationf("Client name already exists")
	}

	client := &model.Client{Name: name, Remark: remark}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	s.logger.Info("客户已创建", zap.String("name", name))

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntityClient, client); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return client, nil
}

// UpdateClient 更新客户，改名时检查重名
func (s *ClientService) UpdateClient(ctx context.Context, userID *int64, id int64, updates map[string]interface{}) (*model.Client, error) {
	before, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name, ok := updates["name"].(string); ok && name != before.Name {
		existing, err := s.clientRepo.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, apperr.Validationf("Client name already exists")
		}
	}

	if err := s.clientRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	after, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityClient, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// DeleteClient 删除客户
// 名下还有护照时需要 cascade 确认，返回冲突并附带护照和签证数量
func (s *ClientService) DeleteClient(ctx context.Context, userID *int64, id int64, cascade bool) error {
	before, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !cascade {
		passports, err := s.passportRepo.CountByClientID(ctx, id)
		if err != nil {
			return err
		}
		if passports > 0 {
			visas, err := s.visaRepo.CountByClientID(ctx, id)
			if err != nil {
				return err
			}
			return apperr.Conflict("客户名下仍有护照记录", map[string]interface{}{
				"code":      "NEED_CONFIRM",
				"passports": passports,
				"visas":     visas,
			})
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if cascade {
			if err := tx.Where("passport_no IN (?)",
				tx.Model(&model.Passport{}).Select("passport_no").Where("client_id = ?", id),
			).Delete(&model.Visa{}).Error; err != nil {
				return err
			}
			if err := tx.Where("client_id = ?", id).Delete(&model.Passport{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Client{}, id).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("客户已删除", zap.String("name", before.Name), zap.Bool("cascade", cascade))

	if err := s.auditSvc.RecordDelete(ctx, userID, model.EntityClient, before); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return nil
}

// GetClient 客户详情
func (s *ClientService) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	return s.clientRepo.GetByID(ctx, id)
}

// ListClients 全量客户列表，客户量级很小不分页
func (s *ClientService) ListClients(ctx context.Context) ([]*model.Client, error) {
	return s.clientRepo.List(ctx)
}
