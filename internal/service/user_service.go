package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UpdateUserRequest 后台编辑用户；Password 为空时不修改密码
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=student admin"`
	Password string `json:"password" binding:"omitempty,min=8"`
	Disabled bool   `json:"disabled"`
}

// UserService 后台用户管理
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) ([]model.User, int64, error) {
	return s.UserRepo.List(ctx, filter, page, limit)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return s.UserRepo.GetUser(ctx, id)
}

// UpdateUser 管理员不能撤销自己的管理员身份或禁用自己
func (s *UserService) UpdateUser(ctx context.Context, actor Identity, id uint, req UpdateUserRequest) (*model.User, error) {
	role := model.UserRole(req.Role)
	if actor.UserID == id && (role != model.Admin || req.Disabled) {
		return nil, errors.Wrap(util.ErrPermissionDenied, "cannot demote or disable yourself")
	}

	user, err := s.UserRepo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.UserRepo.EmailTaken(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrEmailRegistered
	}

	user.Name = req.Name
	user.Email = email
	user.Role = role
	user.Disabled = req.Disabled
	if err := s.UserRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		if err := s.UserRepo.UpdatePassword(ctx, id, string(hashed)); err != nil {
			return nil, err
		}
	}

	logger.Log.Info("User updated by admin",
		zap.Uint("userId", id),
		zap.Uint("adminId", actor.UserID),
		zap.String("role", req.Role))
	return user, nil
}

// ResetPassword 生成临时密码并返回明文，仅此一次可见
func (s *UserService) ResetPassword(ctx context.Context, id uint) (string, error) {
	if _, err := s.UserRepo.GetUser(ctx, id); err != nil {
		return "", err
	}

	temp := "tmp-" + util.GenerateRandomString(10)
	hashed, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	if err := s.UserRepo.UpdatePassword(ctx, id, string(hashed)); err != nil {
		return "", err
	}
	return temp, nil
}

func (s *UserService) DisableUser(ctx context.Context, actor Identity, id uint, disable bool) error {
	if actor.UserID == id && disable {
		return errors.Wrap(util.ErrPermissionDenied, "cannot disable yourself")
	}
	return s.UserRepo.SetDisabled(ctx, id, disable)
}

func (s *UserService) DeleteUser(ctx context.Context, actor Identity, id uint) error {
	if actor.UserID == id {
		return errors.Wrap(util.ErrPermissionDenied, "cannot delete yourself")
	}
	return s.UserRepo.Delete(ctx, id)
}
