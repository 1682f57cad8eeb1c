package model

import "time"

// IssueDateLayout ISO-8601
const IssueDateLayout = time.RFC3339

// Certificate 结业证书，以行的形式挂在用户下，只追加不覆盖
// swagger:model Certificate
type Certificate struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id" validate:"required"`
	UserID         uint      `gorm:"index;not null" json:"userId" validate:"required"`
	UserName       string    `gorm:"size:100" json:"userName"`
	CourseID       uint      `gorm:"index;not null" json:"courseId" validate:"required"`
	CourseTitle    string    `gorm:"size:255" json:"courseTitle"`
	IssueDate      string    `gorm:"size:40;not null" json:"issueDate" validate:"required"`
	CertificateURL string    `gorm:"size:255" json:"certificateUrl,omitempty"`
	CreatedAt      time.Time `json:"-"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) IssuedAt() (time.Time, error) {
	return time.Parse(IssueDateLayout, c.IssueDate)
}
