package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type BlogRepository struct {
	DB *gorm.DB
}

func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{DB: db}
}

func (r *BlogRepository) Create(ctx context.Context, post *model.BlogPost) error {
	return translateErr(r.DB.WithContext(ctx).Create(post).Error, "create post")
}

func (r *BlogRepository) Update(ctx context.Context, post *model.BlogPost) error {
	return translateErr(r.DB.WithContext(ctx).Save(post).Error, "update post")
}

func (r *BlogRepository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&model.BlogPost{}, id)
	if res.Error != nil {
		return translateErr(res.Error, "delete post")
	}
	if res.RowsAffected == 0 {
		return translateErr(gorm.ErrRecordNotFound, "post")
	}
	return nil
}

func (r *BlogRepository) FindByID(ctx context.Context, id uint) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := r.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translateErr(err, "post")
	}
	return &post, nil
}

func (r *BlogRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error) {
	var post model.BlogPost
	query := r.DB.WithContext(ctx).Where("slug = ?", slug)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if err := query.First(&post).Error; err != nil {
		return nil, translateErr(err, "post")
	}
	return &post, nil
}

func (r *BlogRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.BlogPost{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&n).Error
	return n > 0, translateErr(err, "post slug")
}

// List 已发布文章按发布时间倒序
func (r *BlogRepository) List(ctx context.Context, page, limit int, publishedOnly bool) ([]model.BlogPost, int64, error) {
	var posts []model.BlogPost
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.BlogPost{})
	order := "created_at desc"
	if publishedOnly {
		query = query.Where("is_published = ?", true)
		order = "published_at desc, id desc"
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateErr(err, "count posts")
	}
	offset := (page - 1) * limit
	if err := query.Order(order).Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, translateErr(err, "posts")
	}
	return posts, total, nil
}
