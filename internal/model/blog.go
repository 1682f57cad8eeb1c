package model

import "time"

// swagger:model BlogPost
type BlogPost struct {
	BaseModel
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Summary     string     `gorm:"size:500" json:"summary"`
	Content     string     `gorm:"type:longtext" json:"content"`
	CoverURL    string     `gorm:"size:255" json:"coverUrl"`
	AuthorID    uint       `gorm:"index" json:"authorId"`
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt,omitempty"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}
