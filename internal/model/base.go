package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 自增主键 + 软删除；证书使用 UUID 主键，见 Certificate
// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
