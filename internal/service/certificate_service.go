package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// IssuanceError 证书未能落库；Reason 面向用户展示
type IssuanceError struct {
	Reason string
	Cause  error
}

func (e *IssuanceError) Error() string {
	return e.Reason
}

func (e *IssuanceError) Unwrap() error {
	return e.Cause
}

func (e *IssuanceError) Is(target error) bool {
	return target == util.ErrIssuanceFailure
}

// CertificateRenderer 生成可打印证书并返回访问 URL
type CertificateRenderer interface {
	Render(ctx context.Context, cert *model.Certificate) (string, error)
}

type CertificateService struct {
	Users    UserStore
	Certs    CertificateStore
	Renderer CertificateRenderer

	now   func() time.Time
	newID func() string
}

func NewCertificateService(users UserStore, certs CertificateStore, renderer CertificateRenderer) *CertificateService {
	return &CertificateService{
		Users:    users,
		Certs:    certs,
		Renderer: renderer,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Issue 为及格结果签发证书并追加到学员名下。
// 同一用户同一课程多次及格会得到多张证书，是否去重由上层决定。
func (s *CertificateService) Issue(ctx context.Context, result model.QuizResult, course *model.Course, learner Identity) (*model.Certificate, error) {
	ctx, span := tracing.StartSpan(ctx, "certificate.issue",
		attribute.Int64("user.id", int64(learner.UserID)),
		attribute.Int64("course.id", int64(course.ID)))
	defer span.End()

	if !result.Passed {
		return nil, errors.Wrap(util.ErrInvalidSessionState, "certificate requires a passing result")
	}

	user, err := s.Users.GetUser(ctx, learner.UserID)
	if err != nil {
		return nil, s.fail("could not load your profile, certificate was not saved", err)
	}

	name := learner.DisplayName
	if name == "" {
		name = user.DisplayName()
	}

	cert := &model.Certificate{
		ID:          s.newID(),
		UserID:      user.ID,
		UserName:    name,
		CourseID:    course.ID,
		CourseTitle: course.Title,
		IssueDate:   s.now().UTC().Format(model.IssueDateLayout),
	}

	if err := s.Certs.AppendCertificate(ctx, user.ID, cert); err != nil {
		return nil, s.fail("certificate could not be saved, please try again later", err)
	}

	monitoring.CertificatesIssued.WithLabelValues("issued").Inc()
	logger.Log.Info("certificate issued",
		zap.String("certificateId", cert.ID),
		zap.Uint("userId", cert.UserID),
		zap.Uint("courseId", cert.CourseID))

	s.render(ctx, cert)
	return cert, nil
}

func (s *CertificateService) fail(reason string, cause error) error {
	monitoring.CertificatesIssued.WithLabelValues("failed").Inc()
	logger.Log.Warn("certificate issuance failed", zap.String("reason", reason), zap.Error(cause))
	return &IssuanceError{Reason: reason, Cause: cause}
}

// render 失败不影响证书本身
func (s *CertificateService) render(ctx context.Context, cert *model.Certificate) {
	if s.Renderer == nil {
		return
	}
	url, err := s.Renderer.Render(ctx, cert)
	if err != nil {
		logger.Log.Warn("certificate render failed", zap.String("certificateId", cert.ID), zap.Error(err))
		return
	}
	if err := s.Certs.SetCertificateURL(ctx, cert.ID, url); err != nil {
		logger.Log.Warn("certificate url not saved", zap.String("certificateId", cert.ID), zap.Error(err))
		return
	}
	cert.CertificateURL = url
}

func (s *CertificateService) ListForUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	return s.Certs.ListCertificates(ctx, userID)
}

func (s *CertificateService) Verify(ctx context.Context, id string) (*model.Certificate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrap(util.ErrNotFound, "certificate")
	}
	return s.Certs.FindCertificate(ctx, id)
}
