package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name         string        `gorm:"size:100;not null" json:"name" validate:"max=100"`
	Email        string        `gorm:"size:100;unique;not null" json:"email" validate:"required,email"`
	Password     string        `gorm:"size:100;not null" json:"-"`
	Role         UserRole      `gorm:"type:enum('student','admin');default:'student'" json:"role" validate:"oneof=student admin"`
	Avatar       string        `gorm:"size:255" json:"avatar"`
	Disabled     bool          `gorm:"default:false" json:"disabled"`
	LastLogin    time.Time     `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	Enrollments  []Enrollment  `gorm:"foreignKey:UserID" json:"-"`
	Certificates []Certificate `gorm:"foreignKey:UserID" json:"certificates"`

	// 由 Enrollments 推导，不落库
	EnrolledCourseIDs []uint `gorm:"-" json:"enrolledCourseIds"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName 证书等场景使用的展示名
func (u *User) DisplayName() string {
	return u.Name
}
