package service

import (
	"context"

	"visacenter/internal/infrastructure/auth"
	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginResult 登录成功返回的令牌和用户信息
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService 认证服务，bcrypt 校验口令后签发 JWT
type AuthService struct {
	logger     *zap.Logger
	userRepo   *repository.UserRepository
	jwtManager *auth.JWTManager
}

func NewAuthService(db *gorm.DB, logger *zap.Logger, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		logger:     logger,
		userRepo:   repository.NewUserRepository(db),
		jwtManager: jwtManager,
	}
}

// Login 校验用户名口令，成功后刷新最后登录时间并签发令牌
// 用户不存在和口令错误返回同一个消息，不泄露账号是否存在
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorizedf("Invalid credentials")
	}
	if !user.IsActive {
		return nil, apperr.Unauthorizedf("Account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorizedf("Invalid credentials")
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("刷新最后登录时间失败", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户登录", zap.String("username", username))
	return &LoginResult{Token: token, User: user}, nil
}

// Verify 解析令牌并确认用户仍然有效
func (s *AuthService) Verify(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtManager.ParseToken(token)
	if err != nil {
		return nil, apperr.Unauthorizedf("Invalid token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorizedf("User not found or inactive")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorizedf("User not found or inactive")
	}
	return user, nil
}
