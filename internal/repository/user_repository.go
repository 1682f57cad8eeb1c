package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translateErr(r.DB.WithContext(ctx).Create(user).Error, "create user")
}

// GetUser 读取用户及其选课、证书
func (r *UserRepository) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).
		Preload("Enrollments").
		Preload("Certificates", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		First(&user, id).Error
	if err != nil {
		return nil, translateErr(err, "user")
	}
	if err := decodeUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateErr(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", time.Now()).Error
}

// UserFilter 后台用户列表筛选条件
type UserFilter struct {
	Role      model.UserRole
	Status    string // active / disabled
	Search    string
	StartDate time.Time
	EndDate   time.Time
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	switch filter.Status {
	case "disabled":
		query = query.Where("disabled = ?", true)
	case "active":
		query = query.Where("disabled = ?", false)
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", term, term)
	}
	if !filter.StartDate.IsZero() {
		query = query.Where("created_at >= ?", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query = query.Where("created_at <= ?", filter.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateErr(err, "count users")
	}
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translateErr(err, "list users")
	}
	return users, total, nil
}

// UpdateProfile 只更新后台可编辑的字段
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":     user.Name,
			"email":    user.Email,
			"role":     user.Role,
			"disabled": user.Disabled,
		}).Error
	return translateErr(err, "update user")
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint, hashed string) error {
	return translateErr(r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashed).Error, "update password")
}

func (r *UserRepository) SetDisabled(ctx context.Context, userID uint, disabled bool) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("disabled", disabled)
	if res.Error != nil {
		return translateErr(res.Error, "disable user")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(util.ErrNotFound, "user")
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, userID uint) error {
	res := r.DB.WithContext(ctx).Delete(&model.User{}, userID)
	if res.Error != nil {
		return translateErr(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(util.ErrNotFound, "user")
	}
	return nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translateErr(err, "check email")
	}
	return count > 0, nil
}
