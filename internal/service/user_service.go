// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/hash"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/token"
	"pastpapers-go/pkg/validator"

	"gorm.io/gorm"
)

// RegisterForm 是注册表单。
type RegisterForm struct {
	Username  string `form:"username" json:"username" validate:"required,max=150,username"`
	Email     string `form:"email" json:"email" validate:"required,email,max=254"`
	Password1 string `form:"password1" json:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" json:"password2" validate:"required,eqfield=Password1"`
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(form RegisterForm) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	Logout(ctx context.Context, tokenString string) error
	IsRevoked(ctx context.Context, tokenString string) bool
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	CreateSuperuser(username, email, password string) (*model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	tokenRepo   repository.TokenRepository
	jwtManager  *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例，tokenRepo 为 nil 时不维护黑名单。
func NewUserService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, tokenRepo repository.TokenRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		jwtManager:  jwtManager,
	}
}

// Register 处理用户注册的业务逻辑，并显式创建用户资料。
func (s *userService) Register(form RegisterForm) (*model.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if errs := validator.Validate(&form); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return s.createUser(form.Username, form.Email, form.Password1, model.RoleUser)
}

// CreateSuperuser 创建一个 ADMIN 角色的用户。
func (s *userService) CreateSuperuser(username, email, password string) (*model.User, error) {
	if strings.TrimSpace(username) == "" || len(password) < 8 {
		return nil, &ValidationError{Fields: map[string]string{"password": "Ensure this value has at least 8 characters."}}
	}
	return s.createUser(strings.TrimSpace(username), strings.TrimSpace(email), password, model.RoleAdmin)
}

func (s *userService) createUser(username, email, password, role string) (*model.User, error) {
	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新用户
	newUser := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     role,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	// 4. 创建用户资料；失败时资料会在首次访问账户页时补建
	if err := s.profileRepo.Create(&model.Profile{UserID: newUser.ID}); err != nil {
		log.Errorf("[UserService] 创建用户资料失败, username: %s, error: %v", username, err)
	}

	log.Infof("[UserService] 用户注册成功, username: %s, role: %s", username, role)
	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	return s.issue(user)
}

func (s *userService) issue(user *model.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" || s.tokenRepo == nil {
		return nil
	}
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	// token 的剩余有效期将作为 Redis key 的过期时间。
	if err := s.tokenRepo.Blacklist(ctx, tokenString, time.Until(claims.ExpiresAt.Time)); err != nil {
		return fmt.Errorf("写入 token 黑名单失败: %w", err)
	}
	return nil
}

// IsRevoked 判断 token 是否已被注销；Redis 不可用时视为未注销。
func (s *userService) IsRevoked(ctx context.Context, tokenString string) bool {
	if s.tokenRepo == nil {
		return false
	}
	revoked, err := s.tokenRepo.IsBlacklisted(ctx, tokenString)
	if err != nil {
		log.Warnf("[UserService] 查询 token 黑名单失败: %v", err)
		return false
	}
	return revoked
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyKind(refreshTokenString, token.KindRefresh)
	if err != nil {
		return "", "", ErrInvalidRefreshToken
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		return "", "", ErrUserNotFound
	}

	// 3. 签发新的 token
	return s.issue(user)
}
