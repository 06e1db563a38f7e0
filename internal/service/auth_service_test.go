package service

import (
	"context"
	"testing"

	"visacenter/internal/infrastructure/auth"
	"visacenter/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*AuthService, *UserService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	jwtManager := auth.NewJWTManager("test-secret", 1)
	return NewAuthService(db, zap.NewNop(), jwtManager), NewUserService(db, zap.NewNop()), db
}

func TestLoginAndVerify(t *testing.T) {
	authSvc, userSvc, _ := newAuthService(t)

	user, err := userSvc.CreateUser(context.Background(), nil, "admin", "s3cret", true)
	require.NoError(t, err)
	// 口令不落明文
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	result, err := authSvc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	verified, err := authSvc.Verify(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	authSvc, userSvc, _ := newAuthService(t)

	_, err := userSvc.CreateUser(context.Background(), nil, "admin", "s3cret", true)
	require.NoError(t, err)

	_, err = authSvc.Login(context.Background(), "admin", "wrong")
	require.True(t, apperr.IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", err.Error())

	// 不存在的用户返回同样的消息
	_, err = authSvc.Login(context.Background(), "nobody", "s3cret")
	require.True(t, apperr.IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestLoginDisabledAccount(t *testing.T) {
	authSvc, userSvc, _ := newAuthService(t)

	_, err := userSvc.CreateUser(context.Background(), nil, "admin", "s3cret", false)
	require.NoError(t, err)

	_, err = authSvc.Login(context.Background(), "admin", "s3cret")
	require.True(t, apperr.IsUnauthorized(err))
	assert.Equal(t, "Account disabled", err.Error())
}

func TestVerifyRejectsBadOrStaleTokens(t *testing.T) {
	authSvc, userSvc, _ := newAuthService(t)

	_, err := authSvc.Verify(context.Background(), "not-a-token")
	require.True(t, apperr.IsUnauthorized(err))

	user, err := userSvc.CreateUser(context.Background(), nil, "admin", "s3cret", true)
	require.NoError(t, err)
	result, err := authSvc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	// 登录后被停用，令牌随即失效
	disabled := false
	_, err = userSvc.UpdateUser(context.Background(), nil, user.ID, nil, &disabled)
	require.NoError(t, err)

	_, err = authSvc.Verify(context.Background(), result.Token)
	require.True(t, apperr.IsUnauthorized(err))
	assert.Equal(t, "User not found or inactive", err.Error())
}

func TestCreateUserDuplicate(t *testing.T) {
	_, userSvc, _ := newAuthService(t)

	_, err := userSvc.CreateUser(context.Background(), nil, "admin", "s3cret", true)
	require.NoError(t, err)

	_, err = userSvc.CreateUser(context.Background(), nil, "admin", "other", true)
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateUserPassword(t *testing.T) {
	authSvc, userSvc, _ := newAuthService(t)

	user, err := userSvc.CreateUser(context.Background(), nil, "admin", "s3cret", true)
	require.NoError(t, err)

	newPassword := "n3wpass"
	_, err = userSvc.UpdateUser(context.Background(), nil, user.ID, &newPassword, nil)
	require.NoError(t, err)

	_, err = authSvc.Login(context.Background(), "admin", "s3cret")
	assert.True(t, apperr.IsUnauthorized(err))

	_, err = authSvc.Login(context.Background(), "admin", "n3wpass")
	assert.NoError(t, err)
}
