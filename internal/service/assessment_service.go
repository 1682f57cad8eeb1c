package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"sort"

	"github.com/pkg/errors"
)

// LearnerQuestion 学员看到的题目，不含正确答案
type LearnerQuestion struct {
	ID      uint     `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type LearnerQuiz struct {
	ID        uint              `json:"id"`
	ModuleID  uint              `json:"moduleId"`
	Title     string            `json:"title"`
	Questions []LearnerQuestion `json:"questions"`
}

type AssessmentView struct {
	State         SessionState       `json:"state"`
	CourseID      uint               `json:"courseId"`
	ModuleID      uint               `json:"moduleId"`
	CourseTitle   string             `json:"courseTitle,omitempty"`
	ModuleTitle   string             `json:"moduleTitle,omitempty"`
	Quiz          *LearnerQuiz       `json:"quiz,omitempty"`
	Result        *model.QuizResult  `json:"result,omitempty"`
	Certificate   *model.Certificate `json:"certificate,omitempty"`
	IssueReason   string             `json:"issueFailureReason,omitempty"`
	Attempts      int                `json:"attempts"`
	PassThreshold float64            `json:"passThreshold"`
}

// SubmitRequest 题目ID -> 选项下标
type SubmitRequest struct {
	Answers map[uint]int `json:"answers"`
}

type AssessmentService struct {
	Identity IdentityProvider
	Sessions *SessionManager
}

func NewAssessmentService(identity IdentityProvider, sessions *SessionManager) *AssessmentService {
	return &AssessmentService{Identity: identity, Sessions: sessions}
}

func (s *AssessmentService) session(ctx context.Context, courseID, moduleID uint) (*AssessmentSession, error) {
	learner, ok := s.Identity.CurrentUser(ctx)
	if !ok {
		return nil, util.ErrUnauthorized
	}
	return s.Sessions.Get(learner, courseID, moduleID), nil
}

func (s *AssessmentService) load(ctx context.Context, sess *AssessmentSession) error {
	err := sess.Load(ctx)
	if err != nil && sess.State() == StateNotFound {
		// 不缓存“不存在”，管理员之后补建测验可立即生效
		s.Sessions.Remove(sess.Key())
	}
	return err
}

// Load 加载（或恢复）学员在该模块上的测验会话
func (s *AssessmentService) Load(ctx context.Context, courseID, moduleID uint) (*AssessmentView, error) {
	sess, err := s.session(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx, sess); err != nil {
		return nil, err
	}
	return buildAssessmentView(sess.Snapshot(), courseID, moduleID), nil
}

// Submit 会话未加载时先加载
func (s *AssessmentService) Submit(ctx context.Context, courseID, moduleID uint, answers model.AnswerSet) (<-chan Outcome, error) {
	sess, err := s.session(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}
	switch sess.State() {
	case StateIdle, StateLoadError:
		if err := s.load(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess.Submit(ctx, answers)
}

func (s *AssessmentService) SubmitAndWait(ctx context.Context, courseID, moduleID uint, answers model.AnswerSet) ([]Outcome, error) {
	ch, err := s.Submit(ctx, courseID, moduleID, answers)
	if err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, 0, 2)
	for o := range ch {
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (s *AssessmentService) Retry(ctx context.Context, courseID, moduleID uint) (*AssessmentView, error) {
	learner, ok := s.Identity.CurrentUser(ctx)
	if !ok {
		return nil, util.ErrUnauthorized
	}
	sess, ok := s.Sessions.Lookup(SessionKey{UserID: learner.UserID, CourseID: courseID, ModuleID: moduleID})
	if !ok {
		return nil, errors.Wrap(util.ErrInvalidSessionState, "no assessment in progress")
	}
	if err := sess.Retry(ctx); err != nil {
		if sess.State() == StateNotFound {
			s.Sessions.Remove(sess.Key())
		}
		return nil, err
	}
	return buildAssessmentView(sess.Snapshot(), courseID, moduleID), nil
}

// State 未开始的会话返回 idle
func (s *AssessmentService) State(ctx context.Context, courseID, moduleID uint) (*AssessmentView, error) {
	learner, ok := s.Identity.CurrentUser(ctx)
	if !ok {
		return nil, util.ErrUnauthorized
	}
	sess, ok := s.Sessions.Lookup(SessionKey{UserID: learner.UserID, CourseID: courseID, ModuleID: moduleID})
	if !ok {
		return &AssessmentView{State: StateIdle, CourseID: courseID, ModuleID: moduleID}, nil
	}
	return buildAssessmentView(sess.Snapshot(), courseID, moduleID), nil
}

func buildAssessmentView(snap SessionSnapshot, courseID, moduleID uint) *AssessmentView {
	view := &AssessmentView{
		State:         snap.State,
		CourseID:      courseID,
		ModuleID:      moduleID,
		Result:        snap.Result,
		Certificate:   snap.Certificate,
		IssueReason:   snap.IssueReason,
		Attempts:      snap.Attempts,
		PassThreshold: snap.PassThreshold,
	}
	if snap.Course != nil {
		view.CourseTitle = snap.Course.Title
	}
	if snap.Module != nil {
		view.ModuleTitle = snap.Module.Title
	}
	if snap.Quiz != nil {
		view.Quiz = toLearnerQuiz(snap.Quiz)
	}
	return view
}

func toLearnerQuiz(q *model.Quiz) *LearnerQuiz {
	questions := make([]model.QuizQuestion, len(q.Questions))
	copy(questions, q.Questions)
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	lq := &LearnerQuiz{ID: q.ID, ModuleID: q.ModuleID, Title: q.Title, Questions: make([]LearnerQuestion, 0, len(questions))}
	for _, qq := range questions {
		lq.Questions = append(lq.Questions, LearnerQuestion{ID: qq.ID, Text: qq.Text, Options: qq.Options})
	}
	return lq
}
