package service

import (
	"context"
	"learnhub_backend/internal/model"
)

// 测验/证书流程依赖的内容存储接口，生产实现见 repository.ContentStore

type QuizStore interface {
	GetQuiz(ctx context.Context, quizID uint) (*model.Quiz, error)
	GetQuizByModule(ctx context.Context, moduleID uint) (*model.Quiz, error)
}

type CourseStore interface {
	GetCourse(ctx context.Context, courseID uint) (*model.Course, error)
	GetModule(ctx context.Context, courseID, moduleID uint) (*model.Module, error)
}

type UserStore interface {
	GetUser(ctx context.Context, userID uint) (*model.User, error)
}

type CertificateStore interface {
	AppendCertificate(ctx context.Context, userID uint, cert *model.Certificate) error
	SetCertificateURL(ctx context.Context, certID, url string) error
	ListCertificates(ctx context.Context, userID uint) ([]model.Certificate, error)
	FindCertificate(ctx context.Context, id string) (*model.Certificate, error)
}

type ContentStore interface {
	QuizStore
	CourseStore
	UserStore
	CertificateStore
}
