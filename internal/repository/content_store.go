package repository

import (
	"context"
	"learnhub_backend/internal/model"
)

// ContentStore 组合各仓库，供测验/证书流程按接口注入
type ContentStore struct {
	Users        *UserRepository
	Courses      *CourseRepository
	Quizzes      *QuizRepository
	Certificates *CertificateRepository
}

func (s *ContentStore) GetQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	return s.Quizzes.GetQuiz(ctx, quizID)
}

func (s *ContentStore) GetQuizByModule(ctx context.Context, moduleID uint) (*model.Quiz, error) {
	return s.Quizzes.GetQuizByModule(ctx, moduleID)
}

func (s *ContentStore) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	return s.Users.GetUser(ctx, userID)
}

func (s *ContentStore) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	return s.Courses.GetCourse(ctx, courseID)
}

func (s *ContentStore) GetModule(ctx context.Context, courseID, moduleID uint) (*model.Module, error) {
	return s.Courses.GetModule(ctx, courseID, moduleID)
}

func (s *ContentStore) AppendCertificate(ctx context.Context, userID uint, cert *model.Certificate) error {
	return s.Certificates.AppendCertificate(ctx, userID, cert)
}

func (s *ContentStore) SetCertificateURL(ctx context.Context, certID, url string) error {
	return s.Certificates.SetCertificateURL(ctx, certID, url)
}

func (s *ContentStore) ListCertificates(ctx context.Context, userID uint) ([]model.Certificate, error) {
	return s.Certificates.ListByUser(ctx, userID)
}

func (s *ContentStore) FindCertificate(ctx context.Context, id string) (*model.Certificate, error) {
	return s.Certificates.FindByID(ctx, id)
}
