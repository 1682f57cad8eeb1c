package model

import "gorm.io/datatypes"

// Quiz 模块测验，每个模块至多一份
// swagger:model Quiz
type Quiz struct {
	BaseModel
	ModuleID  uint           `gorm:"uniqueIndex;not null" json:"moduleId" validate:"required"`
	Title     string         `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions" validate:"dive"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 单选题；CorrectIndex 从 0 开始
type QuizQuestion struct {
	BaseModel
	QuizID       uint           `gorm:"index;not null" json:"quizId"`
	Text         string         `gorm:"type:text;not null" json:"text" validate:"required"`
	RawOptions   datatypes.JSON `gorm:"column:options;type:json" json:"-"`
	Options      []string       `gorm:"-" json:"options" validate:"min=1"`
	CorrectIndex int            `gorm:"default:0" json:"correctIndex" validate:"gte=0"`
	Order        int            `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
