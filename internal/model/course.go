package model

import "time"

// swagger:model Course
type Course struct {
	BaseModel
	Title         string     `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Description   string     `gorm:"type:text" json:"description"`
	CoverURL      string     `gorm:"size:255" json:"coverUrl"`
	PassThreshold float64    `gorm:"default:0" json:"passThreshold"` // 0 表示使用全局及格线
	IsPublished   bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	Modules       []Module   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Module
type Module struct {
	BaseModel
	CourseID      uint    `gorm:"index;not null" json:"courseId" validate:"required"`
	Title         string  `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Content       string  `gorm:"type:text" json:"content"`
	VideoURL      string  `gorm:"size:255" json:"videoUrl"`
	VideoDuration float64 `gorm:"default:0" json:"videoDuration"` // 秒
	Order         int     `gorm:"default:0" json:"order"`
}

func (Module) TableName() string {
	return "course_modules"
}

type Enrollment struct {
	BaseModel
	UserID   uint `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"userId"`
	CourseID uint `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"courseId"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// swagger:model Review
type Review struct {
	BaseModel
	UserID   uint   `gorm:"uniqueIndex:idx_review_user_course;not null" json:"userId"`
	CourseID uint   `gorm:"uniqueIndex:idx_review_user_course;not null" json:"courseId"`
	UserName string `gorm:"size:100" json:"userName"`
	Rating   int    `gorm:"not null" json:"rating"`
	Comment  string `gorm:"type:text" json:"comment"`
}

func (Review) TableName() string {
	return "course_reviews"
}
