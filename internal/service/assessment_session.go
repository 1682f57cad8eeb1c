package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type SessionState string

const (
	StateIdle                   SessionState = "idle"
	StateLoaded                 SessionState = "loaded"
	StateNotFound               SessionState = "not_found"
	StateLoadError              SessionState = "load_error"
	StateEvaluating             SessionState = "evaluating"
	StateResult                 SessionState = "result"
	StateCertificateIssued      SessionState = "certificate_issued"
	StateCertificateIssueFailed SessionState = "certificate_issue_failed"
)

type OutcomeKind string

const (
	OutcomeResult                 OutcomeKind = "result"
	OutcomeCertificateIssued      OutcomeKind = "certificateIssued"
	OutcomeCertificateIssueFailed OutcomeKind = "certificateIssueFailed"
)

// Outcome 提交后依次产生的结果：先 result，及格时再跟一条证书结果
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	*model.QuizResult
	Certificate *model.Certificate `json:"certificate,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

// Evaluator 由 QuizEvaluator 实现
type Evaluator interface {
	Evaluate(quiz *model.Quiz, answers model.AnswerSet, course *model.Course) model.QuizResult
	ThresholdFor(course *model.Course) float64
}

type CertificateIssuer interface {
	Issue(ctx context.Context, result model.QuizResult, course *model.Course, learner Identity) (*model.Certificate, error)
}

// AssessmentStore 会话加载测验所需的读接口
type AssessmentStore interface {
	QuizStore
	CourseStore
}

type SessionKey struct {
	UserID   uint
	CourseID uint
	ModuleID uint
}

// AssessmentSession 单个学员在单个模块上的测验会话，同一时刻只允许一次提交在途
type AssessmentSession struct {
	mu sync.Mutex

	key       SessionKey
	learner   Identity
	store     AssessmentStore
	evaluator Evaluator
	issuer    CertificateIssuer
	now       func() time.Time

	state       SessionState
	course      *model.Course
	module      *model.Module
	quiz        *model.Quiz
	answers     model.AnswerSet
	result      *model.QuizResult
	certificate *model.Certificate
	issueReason string
	attempts    int
	lastActive  time.Time
}

func NewAssessmentSession(learner Identity, courseID, moduleID uint, store AssessmentStore, evaluator Evaluator, issuer CertificateIssuer) *AssessmentSession {
	s := &AssessmentSession{
		key:       SessionKey{UserID: learner.UserID, CourseID: courseID, ModuleID: moduleID},
		learner:   learner,
		store:     store,
		evaluator: evaluator,
		issuer:    issuer,
		now:       time.Now,
		state:     StateIdle,
		answers:   model.AnswerSet{},
	}
	s.lastActive = s.now()
	return s
}

func (s *AssessmentSession) Key() SessionKey {
	return s.key
}

func (s *AssessmentSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *AssessmentSession) touch() {
	s.lastActive = s.now()
}

// Load 拉取课程、模块与测验。已加载过的会话直接返回；
// load_error 可重复加载，not_found 为终态。
func (s *AssessmentSession) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch s.state {
	case StateNotFound:
		return errors.Wrap(util.ErrNotFound, "quiz")
	case StateIdle, StateLoadError:
	default:
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "assessment.load",
		attribute.Int64("course.id", int64(s.key.CourseID)),
		attribute.Int64("module.id", int64(s.key.ModuleID)))
	defer span.End()

	course, err := s.store.GetCourse(ctx, s.key.CourseID)
	if err != nil {
		return s.loadFailed(err)
	}
	module, err := s.store.GetModule(ctx, s.key.CourseID, s.key.ModuleID)
	if err != nil {
		return s.loadFailed(err)
	}
	quiz, err := s.store.GetQuizByModule(ctx, module.ID)
	if err != nil {
		return s.loadFailed(err)
	}

	s.course, s.module, s.quiz = course, module, quiz
	s.answers = model.AnswerSet{}
	s.state = StateLoaded
	return nil
}

func (s *AssessmentSession) loadFailed(err error) error {
	if errors.Is(err, util.ErrNotFound) {
		s.state = StateNotFound
	} else {
		s.state = StateLoadError
		logger.Log.Warn("assessment load failed",
			zap.Uint("userId", s.key.UserID),
			zap.Uint("moduleId", s.key.ModuleID),
			zap.Error(err))
	}
	return err
}

// Submit 评分并返回结果流。评分完成后先发出 result，及格时再签发证书；
// 通道在全部结果发出后关闭。
func (s *AssessmentSession) Submit(ctx context.Context, answers model.AnswerSet) (<-chan Outcome, error) {
	s.mu.Lock()
	s.touch()
	switch s.state {
	case StateEvaluating:
		s.mu.Unlock()
		return nil, util.ErrSubmissionInFlight
	case StateLoaded:
	default:
		state := s.state
		s.mu.Unlock()
		return nil, errors.Wrapf(util.ErrInvalidSessionState, "cannot submit in state %s", state)
	}

	s.answers = make(model.AnswerSet, len(answers))
	for qid, idx := range answers {
		s.answers[qid] = idx
	}
	s.state = StateEvaluating
	s.attempts++
	quiz, course, submitted := s.quiz, s.course, s.answers
	s.mu.Unlock()

	out := make(chan Outcome, 2)
	// 学员离开页面不应中断已开始的证书写入
	go s.run(context.WithoutCancel(ctx), quiz, course, submitted, out)
	return out, nil
}

func (s *AssessmentSession) run(ctx context.Context, quiz *model.Quiz, course *model.Course, answers model.AnswerSet, out chan<- Outcome) {
	defer close(out)

	ctx, span := tracing.StartSpan(ctx, "assessment.submit",
		attribute.Int64("user.id", int64(s.key.UserID)),
		attribute.Int64("module.id", int64(s.key.ModuleID)))
	defer span.End()

	result := s.evaluator.Evaluate(quiz, answers, course)
	span.SetAttributes(attribute.Bool("quiz.passed", result.Passed))
	if result.Passed {
		monitoring.QuizSubmissions.WithLabelValues("passed").Inc()
	} else {
		monitoring.QuizSubmissions.WithLabelValues("failed").Inc()
	}

	s.mu.Lock()
	s.result = &result
	s.certificate = nil
	s.issueReason = ""
	s.state = StateResult
	s.mu.Unlock()

	out <- Outcome{Kind: OutcomeResult, QuizResult: &result}
	if !result.Passed {
		return
	}

	cert, err := s.issuer.Issue(ctx, result, course, s.learner)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.issueReason = issuanceReason(err)
		s.state = StateCertificateIssueFailed
		out <- Outcome{Kind: OutcomeCertificateIssueFailed, Reason: s.issueReason}
		return
	}
	s.certificate = cert
	s.state = StateCertificateIssued
	out <- Outcome{Kind: OutcomeCertificateIssued, Certificate: cert}
}

func issuanceReason(err error) string {
	var ie *IssuanceError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return "certificate could not be issued"
}

// SubmitAndWait 提交并收集全部结果
func (s *AssessmentSession) SubmitAndWait(ctx context.Context, answers model.AnswerSet) ([]Outcome, error) {
	ch, err := s.Submit(ctx, answers)
	if err != nil {
		return nil, err
	}
	var outcomes []Outcome
	for o := range ch {
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// Retry 未及格、已发证或签发失败后重新作答：答案清空并重新拉取测验，不限次数。
// 证书签发进行中（state 为 result 且已及格）不可重试。
func (s *AssessmentSession) Retry(ctx context.Context) error {
	s.mu.Lock()
	s.touch()

	retryable := (s.state == StateResult && s.result != nil && !s.result.Passed) ||
		s.state == StateCertificateIssued ||
		s.state == StateCertificateIssueFailed
	if !retryable {
		state := s.state
		s.mu.Unlock()
		return errors.Wrapf(util.ErrInvalidSessionState, "cannot retry in state %s", state)
	}

	s.answers = model.AnswerSet{}
	s.result = nil
	s.certificate = nil
	s.issueReason = ""
	s.course, s.module, s.quiz = nil, nil, nil
	s.state = StateIdle
	s.mu.Unlock()

	// 两次作答之间测验可能被整体替换或删除
	return s.Load(ctx)
}

// SessionSnapshot 会话对外只读视图
type SessionSnapshot struct {
	State         SessionState
	Course        *model.Course
	Module        *model.Module
	Quiz          *model.Quiz
	Result        *model.QuizResult
	Certificate   *model.Certificate
	IssueReason   string
	Attempts      int
	PassThreshold float64
	LastActive    time.Time
}

func (s *AssessmentSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		State:       s.state,
		Course:      s.course,
		Module:      s.module,
		Quiz:        s.quiz,
		Certificate: s.certificate,
		IssueReason: s.issueReason,
		Attempts:    s.attempts,
		LastActive:  s.lastActive,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	if s.evaluator != nil {
		snap.PassThreshold = s.evaluator.ThresholdFor(s.course)
	}
	return snap
}

func (s *AssessmentSession) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive), s.state == StateEvaluating
}

// SessionManager 按 (学员, 课程, 模块) 管理内存中的会话
type SessionManager struct {
	mu       sync.Mutex
	sessions map[SessionKey]*AssessmentSession

	store     AssessmentStore
	evaluator Evaluator
	issuer    CertificateIssuer
	now       func() time.Time
}

func NewSessionManager(store AssessmentStore, evaluator Evaluator, issuer CertificateIssuer) *SessionManager {
	return &SessionManager{
		sessions:  make(map[SessionKey]*AssessmentSession),
		store:     store,
		evaluator: evaluator,
		issuer:    issuer,
		now:       time.Now,
	}
}

// Get 获取或创建会话
func (m *SessionManager) Get(learner Identity, courseID, moduleID uint) *AssessmentSession {
	key := SessionKey{UserID: learner.UserID, CourseID: courseID, ModuleID: moduleID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := NewAssessmentSession(learner, courseID, moduleID, m.store, m.evaluator, m.issuer)
	s.now = m.now
	s.lastActive = m.now()
	m.sessions[key] = s
	monitoring.ActiveAssessmentSessions.Set(float64(len(m.sessions)))
	return s
}

func (m *SessionManager) Lookup(key SessionKey) (*AssessmentSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

func (m *SessionManager) Remove(key SessionKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	monitoring.ActiveAssessmentSessions.Set(float64(len(m.sessions)))
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep 清理空闲超过 idle 的会话，评分中的会话保留
func (m *SessionManager) Sweep(idle time.Duration) int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		since, busy := s.idleSince(now)
		if busy || since < idle {
			continue
		}
		delete(m.sessions, key)
		removed++
	}
	monitoring.ActiveAssessmentSessions.Set(float64(len(m.sessions)))
	return removed
}
