package service

import (
	"context"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 后台用户管理
type UserService struct {
	logger   *zap.Logger
	userRepo *repository.UserRepository
	auditSvc *AuditService
}

func NewUserService(db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{
		logger:   logger,
		userRepo: repository.NewUserRepository(db),
		auditSvc: NewAuditService(db),
	}
}

// CreateUser 新建用户，口令入库前做 bcrypt 哈希
func (s *UserService) CreateUser(ctx context.Context, actorID *int64, username, password string, isActive bool) (*model.User, error) {
	if username == "" || password == "" {
		return nil, apperr.Validationf("用户名和口令不能为空")
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validationf("用户名已存在")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     isActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("用户已创建", zap.String("username", username))

	if err := s.auditSvc.RecordCreate(ctx, actorID, model.EntityUser, user); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return user, nil
}

// UpdateUser 更新口令或启用状态
func (s *UserService) UpdateUser(ctx context.Context, actorID *int64, id int64, password *string, isActive *bool) (*model.User, error) {
	before, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if password != nil {
		if *password == "" {
			return nil, apperr.Validationf("口令不能为空")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}
	if len(updates) == 0 {
		return before, nil
	}

	if err := s.userRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	after, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, actorID, model.EntityUser, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// GetUser 用户详情
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers 用户列表
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.List(ctx)
}
