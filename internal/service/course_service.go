package service

import (
	"context"
	"fmt"
	"io"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type CourseRequest struct {
	Title         string  `json:"title" binding:"required,max=255"`
	Description   string  `json:"description"`
	CoverURL      string  `json:"coverUrl" binding:"omitempty,max=255"`
	PassThreshold float64 `json:"passThreshold" binding:"gte=0,lte=100"`
	IsPublished   bool    `json:"isPublished"`
}

type ModuleRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Content  string `json:"content"`
	VideoURL string `json:"videoUrl" binding:"omitempty,max=255"`
	Order    *int   `json:"order"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ReviewList struct {
	List          []model.Review `json:"list"`
	Total         int64          `json:"total"`
	AverageRating float64        `json:"averageRating"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}

type CourseService struct {
	Repo           *repository.CourseRepository
	StorageService *StorageService
	Cfg            *config.Config
}

func NewCourseService(repo *repository.CourseRepository, storage *StorageService, cfg *config.Config) *CourseService {
	return &CourseService{Repo: repo, StorageService: storage, Cfg: cfg}
}

func applyCourseRequest(course *model.Course, req CourseRequest) {
	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.CoverURL = req.CoverURL
	course.PassThreshold = req.PassThreshold
	if req.IsPublished && !course.IsPublished {
		now := time.Now()
		course.PublishedAt = &now
	}
	course.IsPublished = req.IsPublished
}

func (s *CourseService) CreateCourse(ctx context.Context, req CourseRequest) (*model.Course, error) {
	course := &model.Course{}
	applyCourseRequest(course, req)
	if err := s.Repo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, id uint, req CourseRequest) (*model.Course, error) {
	course, err := s.Repo.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	applyCourseRequest(course, req)
	if err := s.Repo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, id uint) error {
	return s.Repo.Delete(ctx, id)
}

// GetCourse 未发布课程仅管理员可见
func (s *CourseService) GetCourse(ctx context.Context, id uint, includeDraft bool) (*model.Course, error) {
	course, err := s.Repo.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished && !includeDraft {
		return nil, errors.Wrap(util.ErrNotFound, "course")
	}
	return course, nil
}

func (s *CourseService) ListCourses(ctx context.Context, page, limit int, includeDraft bool) ([]model.Course, int64, error) {
	return s.Repo.List(ctx, page, limit, !includeDraft)
}

func (s *CourseService) GetModule(ctx context.Context, courseID, moduleID uint, includeDraft bool) (*model.Module, error) {
	if _, err := s.GetCourse(ctx, courseID, includeDraft); err != nil {
		return nil, err
	}
	return s.Repo.GetModule(ctx, courseID, moduleID)
}

// CreateModule 未指定顺序时追加到末尾
func (s *CourseService) CreateModule(ctx context.Context, courseID uint, req ModuleRequest) (*model.Module, error) {
	course, err := s.Repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	m := &model.Module{
		CourseID: courseID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		VideoURL: req.VideoURL,
		Order:    len(course.Modules),
	}
	if req.Order != nil {
		m.Order = *req.Order
	}
	if err := s.Repo.CreateModule(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CourseService) UpdateModule(ctx context.Context, courseID, moduleID uint, req ModuleRequest) (*model.Module, error) {
	m, err := s.Repo.GetModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}
	m.Title = strings.TrimSpace(req.Title)
	m.Content = req.Content
	if req.VideoURL != "" {
		m.VideoURL = req.VideoURL
	}
	if req.Order != nil {
		m.Order = *req.Order
	}
	if err := s.Repo.UpdateModule(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CourseService) DeleteModule(ctx context.Context, courseID, moduleID uint) error {
	return s.Repo.DeleteModule(ctx, courseID, moduleID)
}

// UploadModuleVideo 先落临时文件探测时长，再上传到对象存储
func (s *CourseService) UploadModuleVideo(ctx context.Context, courseID, moduleID uint, file *multipart.FileHeader) (*model.Module, error) {
	m, err := s.Repo.GetModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !util.HasAllowedExtension(file.Filename, util.AllowedVideoExtensions) {
		return nil, errors.Wrapf(util.ErrInvalidUpload, "unsupported video extension %q", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if _, err := util.ValidateMimeType(src, []string{util.MimeVideo}); err != nil {
		return nil, errors.Wrap(util.ErrInvalidUpload, err.Error())
	}
	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	tempDir := filepath.Join(s.Cfg.Storage.LocalPath, "temp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, err
	}
	videoPath := filepath.Join(tempDir, fmt.Sprintf("module_%d_%d%s", moduleID, time.Now().UnixNano(), ext))
	defer os.Remove(videoPath)

	if err := copyToFile(videoPath, src); err != nil {
		return nil, err
	}

	videoFilename := fmt.Sprintf("videos/course-%d/%s-%s%s", courseID, time.Now().Format("20060102150405"),
		util.GenerateRandomString(6), ext)
	videoURL, err := s.StorageService.UploadFile(ctx, videoFilename, videoPath, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	var duration float64
	if info, err := util.GetVideoInfo(videoPath); err != nil {
		logger.Log.Warn("probe video failed", zap.Uint("moduleId", moduleID), zap.Error(err))
	} else {
		duration = info.Duration
	}

	m.VideoURL = videoURL
	m.VideoDuration = duration
	if err := s.Repo.UpdateModule(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func copyToFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *CourseService) Enroll(ctx context.Context, userID, courseID uint) error {
	if _, err := s.GetCourse(ctx, courseID, false); err != nil {
		return err
	}
	return s.Repo.Enroll(ctx, userID, courseID)
}

func (s *CourseService) ListEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	return s.Repo.ListEnrollments(ctx, userID)
}

func (s *CourseService) ReviewCourse(ctx context.Context, learner Identity, courseID uint, req ReviewRequest) (*model.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, errors.Wrap(util.ErrInvalidInput, "rating must be between 1 and 5")
	}
	if _, err := s.GetCourse(ctx, courseID, false); err != nil {
		return nil, err
	}
	review := &model.Review{
		UserID:   learner.UserID,
		CourseID: courseID,
		UserName: learner.DisplayName,
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := s.Repo.UpsertReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *CourseService) ListReviews(ctx context.Context, courseID uint, page, limit int) (*ReviewList, error) {
	reviews, total, avg, err := s.Repo.ListReviews(ctx, courseID, page, limit)
	if err != nil {
		return nil, err
	}
	return &ReviewList{List: reviews, Total: total, AverageRating: avg, Page: page, Limit: limit}, nil
}
