package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type DashboardRepository struct {
	DB *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

// SiteCounts 后台概览的计数
type SiteCounts struct {
	Users              int64 `json:"users"`
	DisabledUsers      int64 `json:"disabledUsers"`
	PublishedCourses   int64 `json:"publishedCourses"`
	DraftCourses       int64 `json:"draftCourses"`
	Modules            int64 `json:"modules"`
	Quizzes            int64 `json:"quizzes"`
	Enrollments        int64 `json:"enrollments"`
	Certificates       int64 `json:"certificates"`
	RecentCertificates int64 `json:"recentCertificates"`
	PublishedPosts     int64 `json:"publishedPosts"`
}

// Counts since 之后签发的证书计入 RecentCertificates
func (r *DashboardRepository) Counts(ctx context.Context, since time.Time) (*SiteCounts, error) {
	db := r.DB.WithContext(ctx)
	var c SiteCounts

	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&c.Users, &model.User{}, "", nil},
		{&c.DisabledUsers, &model.User{}, "disabled = ?", []interface{}{true}},
		{&c.PublishedCourses, &model.Course{}, "is_published = ?", []interface{}{true}},
		{&c.DraftCourses, &model.Course{}, "is_published = ?", []interface{}{false}},
		{&c.Modules, &model.Module{}, "", nil},
		{&c.Quizzes, &model.Quiz{}, "", nil},
		{&c.Enrollments, &model.Enrollment{}, "", nil},
		{&c.Certificates, &model.Certificate{}, "", nil},
		{&c.RecentCertificates, &model.Certificate{}, "created_at >= ?", []interface{}{since}},
		{&c.PublishedPosts, &model.BlogPost{}, "is_published = ?", []interface{}{true}},
	}

	for _, q := range counts {
		query := db.Model(q.model)
		if q.where != "" {
			query = query.Where(q.where, q.args...)
		}
		if err := query.Count(q.dst).Error; err != nil {
			return nil, translateErr(err, "dashboard counts")
		}
	}
	return &c, nil
}

type CourseEnrollmentCount struct {
	CourseID    uint   `json:"courseId"`
	Title       string `json:"title"`
	Enrollments int64  `json:"enrollments"`
}

// TopCourses 按选课人数倒序
func (r *DashboardRepository) TopCourses(ctx context.Context, limit int) ([]CourseEnrollmentCount, error) {
	var rows []CourseEnrollmentCount
	err := r.DB.WithContext(ctx).
		Table("enrollments").
		Select("enrollments.course_id AS course_id, courses.title AS title, COUNT(*) AS enrollments").
		Joins("JOIN courses ON courses.id = enrollments.course_id AND courses.deleted_at IS NULL").
		Where("enrollments.deleted_at IS NULL").
		Group("enrollments.course_id, courses.title").
		Order("enrollments DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translateErr(err, "top courses")
	}
	return rows, nil
}
