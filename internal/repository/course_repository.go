package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return translateErr(r.DB.WithContext(ctx).Omit("Modules").Create(course).Error, "create course")
}

func (r *CourseRepository) Update(ctx context.Context, course *model.Course) error {
	return translateErr(r.DB.WithContext(ctx).Omit("Modules").Save(course).Error, "update course")
}

func (r *CourseRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Course{}, id)
		if res.Error != nil {
			return translateErr(res.Error, "delete course")
		}
		if res.RowsAffected == 0 {
			return translateErr(gorm.ErrRecordNotFound, "course")
		}
		return translateErr(tx.Where("course_id = ?", id).Delete(&model.Module{}).Error, "delete course modules")
	})
}

// GetCourse 读取课程及按顺序排列的模块
func (r *CourseRepository) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc, id asc")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, translateErr(err, "course")
	}
	if err := decodeCourse(&course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List(ctx context.Context, page, limit int, publishedOnly bool) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateErr(err, "count courses")
	}
	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, translateErr(err, "courses")
	}
	for i := range courses {
		if err := decodeCourse(&courses[i]); err != nil {
			return nil, 0, err
		}
	}
	return courses, total, nil
}

// GetModule 模块必须属于指定课程
func (r *CourseRepository) GetModule(ctx context.Context, courseID, moduleID uint) (*model.Module, error) {
	var m model.Module
	err := r.DB.WithContext(ctx).
		Where("id = ? AND course_id = ?", moduleID, courseID).
		First(&m).Error
	if err != nil {
		return nil, translateErr(err, "module")
	}
	if err := decodeModule(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CourseRepository) CreateModule(ctx context.Context, m *model.Module) error {
	return translateErr(r.DB.WithContext(ctx).Create(m).Error, "create module")
}

func (r *CourseRepository) UpdateModule(ctx context.Context, m *model.Module) error {
	return translateErr(r.DB.WithContext(ctx).Save(m).Error, "update module")
}

func (r *CourseRepository) DeleteModule(ctx context.Context, courseID, moduleID uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND course_id = ?", moduleID, courseID).Delete(&model.Module{})
	if res.Error != nil {
		return translateErr(res.Error, "delete module")
	}
	if res.RowsAffected == 0 {
		return translateErr(gorm.ErrRecordNotFound, "module")
	}
	return nil
}

// Enroll 幂等：重复选课不报错
func (r *CourseRepository) Enroll(ctx context.Context, userID, courseID uint) error {
	e := &model.Enrollment{UserID: userID, CourseID: courseID}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e).Error
	return translateErr(err, "enroll")
}

func (r *CourseRepository) ListEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&es).Error
	return es, translateErr(err, "enrollments")
}

// UpsertReview 每个用户对每门课只保留一条评价
func (r *CourseRepository) UpsertReview(ctx context.Context, review *model.Review) error {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "user_name", "updated_at"}),
		}).
		Create(review).Error
	return translateErr(err, "upsert review")
}

func (r *CourseRepository) ListReviews(ctx context.Context, courseID uint, page, limit int) ([]model.Review, int64, float64, error) {
	var reviews []model.Review
	var agg struct {
		Total   int64
		Average float64
	}
	query := r.DB.WithContext(ctx).Model(&model.Review{}).Where("course_id = ?", courseID)
	if err := query.Select("COUNT(*) AS total, COALESCE(AVG(rating), 0) AS average").Scan(&agg).Error; err != nil {
		return nil, 0, 0, translateErr(err, "review stats")
	}
	offset := (page - 1) * limit
	err := r.DB.WithContext(ctx).Where("course_id = ?", courseID).
		Order("created_at desc").Offset(offset).Limit(limit).Find(&reviews).Error
	if err != nil {
		return nil, 0, 0, translateErr(err, "reviews")
	}
	return reviews, agg.Total, agg.Average, nil
}
