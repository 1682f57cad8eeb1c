package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"strings"
	"time"
)

type BlogPostRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"omitempty,max=160"`
	Summary     string `json:"summary" binding:"max=500"`
	Content     string `json:"content" binding:"required"`
	CoverURL    string `json:"coverUrl" binding:"omitempty,max=255"`
	IsPublished bool   `json:"isPublished"`
}

type BlogService struct {
	Repo *repository.BlogRepository
}

func NewBlogService(repo *repository.BlogRepository) *BlogService {
	return &BlogService{Repo: repo}
}

func (s *BlogService) uniqueSlug(ctx context.Context, req BlogPostRequest, excludeID uint) (string, error) {
	base := req.Slug
	if strings.TrimSpace(base) == "" {
		base = req.Title
	}
	return util.UniqueSlug(base, "post", func(candidate string) (bool, error) {
		return s.Repo.SlugExists(ctx, candidate, excludeID)
	})
}

func applyBlogRequest(post *model.BlogPost, req BlogPostRequest) {
	post.Title = strings.TrimSpace(req.Title)
	post.Summary = req.Summary
	post.Content = req.Content
	post.CoverURL = req.CoverURL
	if req.IsPublished && !post.IsPublished {
		now := time.Now()
		post.PublishedAt = &now
	}
	post.IsPublished = req.IsPublished
}

func (s *BlogService) Create(ctx context.Context, authorID uint, req BlogPostRequest) (*model.BlogPost, error) {
	slug, err := s.uniqueSlug(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	post := &model.BlogPost{Slug: slug, AuthorID: authorID}
	applyBlogRequest(post, req)
	if err := s.Repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update 只有显式传入不同的 slug 才会改动，已发布链接保持稳定
func (s *BlogService) Update(ctx context.Context, id uint, req BlogPostRequest) (*model.BlogPost, error) {
	post, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Slug != "" && util.GenerateSlug(req.Slug) != post.Slug {
		slug, err := s.uniqueSlug(ctx, req, post.ID)
		if err != nil {
			return nil, err
		}
		post.Slug = slug
	}
	applyBlogRequest(post, req)
	if err := s.Repo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BlogService) Delete(ctx context.Context, id uint) error {
	return s.Repo.Delete(ctx, id)
}

func (s *BlogService) GetBySlug(ctx context.Context, slug string, includeDraft bool) (*model.BlogPost, error) {
	return s.Repo.FindBySlug(ctx, slug, !includeDraft)
}

func (s *BlogService) GetByID(ctx context.Context, id uint) (*model.BlogPost, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *BlogService) List(ctx context.Context, page, limit int, includeDraft bool) ([]model.BlogPost, int64, error) {
	return s.Repo.List(ctx, page, limit, !includeDraft)
}
