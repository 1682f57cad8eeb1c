package service

import (
	"context"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AccountStore 由 repository.UserRepository 实现
type AccountStore interface {
	Create(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, userID uint) error
}

type AuthService struct {
	UserRepo AccountStore
	Cfg      *config.Config
}

func NewAuthService(userRepo AccountStore, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}

	user, err := newAccount(req.Name, email, req.Password, model.Student)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("user registered", zap.Uint("userId", user.ID))
	return user, nil
}

// newAccount 公开注册只产生 student，管理员来自 EnsureAdmin 或后台提权
func newAccount(name, email, password string, role model.UserRole) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return &model.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}, nil
}

// EnsureAdmin 按配置创建初始管理员；邮箱已存在时不做改动
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	existing, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.Admin {
			logger.Log.Warn("seed admin email belongs to a non-admin account", zap.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return err
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	user, err := newAccount(name, email, cfg.Password, model.Admin)
	if err != nil {
		return err
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return err
	}
	logger.Log.Info("seed admin created", zap.Uint("userId", user.ID), zap.String("email", email))
	return nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrInvalidLogin
		}
		return nil, err
	}
	if user.Disabled {
		return nil, util.ErrPermissionDenied
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidLogin
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Log.Warn("update last login failed", zap.Uint("userId", user.ID), zap.Error(err))
	}
	return &LoginResponse{Token: token, User: user}, nil
}

// Profile 含选课与证书
func (s *AuthService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	return s.UserRepo.GetUser(ctx, userID)
}
