package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"sync"

	"github.com/pkg/errors"
)

// memStore 内存版内容存储，各方法可注入错误
type memStore struct {
	mu sync.Mutex

	courses map[uint]*model.Course
	modules map[uint]*model.Module
	quizzes map[uint]*model.Quiz // moduleID -> quiz
	users   map[uint]*model.User
	certs   []model.Certificate

	courseErr  error
	moduleErr  error
	quizErr    error
	userErr    error
	appendErr  error
	quizCalls  int
	saveCalls  int
	appendHook func()
}

func newMemStore() *memStore {
	return &memStore{
		courses: map[uint]*model.Course{},
		modules: map[uint]*model.Module{},
		quizzes: map[uint]*model.Quiz{},
		users:   map[uint]*model.User{},
	}
}

func (s *memStore) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.courseErr != nil {
		return nil, s.courseErr
	}
	c, ok := s.courses[courseID]
	if !ok {
		return nil, errors.Wrap(util.ErrNotFound, "course")
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) GetModule(ctx context.Context, courseID, moduleID uint) (*model.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.moduleErr != nil {
		return nil, s.moduleErr
	}
	m, ok := s.modules[moduleID]
	if !ok || m.CourseID != courseID {
		return nil, errors.Wrap(util.ErrNotFound, "module")
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) GetQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quizzes {
		if q.ID == quizID {
			return cloneQuiz(q), nil
		}
	}
	return nil, errors.Wrap(util.ErrNotFound, "quiz")
}

func (s *memStore) GetQuizByModule(ctx context.Context, moduleID uint) (*model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizCalls++
	if s.quizErr != nil {
		return nil, s.quizErr
	}
	q, ok := s.quizzes[moduleID]
	if !ok {
		return nil, errors.Wrap(util.ErrNotFound, "quiz")
	}
	return cloneQuiz(q), nil
}

func (s *memStore) SaveQuiz(ctx context.Context, quiz *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if quiz.ID == 0 {
		quiz.ID = uint(len(s.quizzes) + 1)
	}
	for i := range quiz.Questions {
		quiz.Questions[i].ID = uint(i + 1)
		quiz.Questions[i].QuizID = quiz.ID
	}
	s.quizzes[quiz.ModuleID] = cloneQuiz(quiz)
	return nil
}

func (s *memStore) DeleteQuiz(ctx context.Context, quizID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for moduleID, q := range s.quizzes {
		if q.ID == quizID {
			delete(s.quizzes, moduleID)
			return nil
		}
	}
	return errors.Wrap(util.ErrNotFound, "quiz")
}

func (s *memStore) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userErr != nil {
		return nil, s.userErr
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, errors.Wrap(util.ErrNotFound, "user")
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) AppendCertificate(ctx context.Context, userID uint, cert *model.Certificate) error {
	if s.appendHook != nil {
		s.appendHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	cert.UserID = userID
	s.certs = append(s.certs, *cert)
	return nil
}

func (s *memStore) SetCertificateURL(ctx context.Context, certID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.certs {
		if s.certs[i].ID == certID {
			s.certs[i].CertificateURL = url
			return nil
		}
	}
	return errors.Wrap(util.ErrNotFound, "certificate")
}

func (s *memStore) ListCertificates(ctx context.Context, userID uint) ([]model.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Certificate
	for _, c := range s.certs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) FindCertificate(ctx context.Context, id string) (*model.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.certs {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, errors.Wrap(util.ErrNotFound, "certificate")
}

func (s *memStore) certificates() []model.Certificate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Certificate(nil), s.certs...)
}

func cloneQuiz(q *model.Quiz) *model.Quiz {
	cp := *q
	cp.Questions = make([]model.QuizQuestion, len(q.Questions))
	for i, qq := range q.Questions {
		qq.Options = append([]string(nil), qq.Options...)
		cp.Questions[i] = qq
	}
	return &cp
}

// fiveQuestionQuiz 正确答案依次为 0,1,2,0,1
func fiveQuestionQuiz(moduleID uint) *model.Quiz {
	q := &model.Quiz{ModuleID: moduleID, Title: "Module quiz"}
	q.ID = 7
	for i, correct := range []int{0, 1, 2, 0, 1} {
		qq := model.QuizQuestion{
			QuizID:       q.ID,
			Text:         "question",
			Options:      []string{"a", "b", "c"},
			CorrectIndex: correct,
			Order:        i,
		}
		qq.ID = uint(i + 1)
		q.Questions = append(q.Questions, qq)
	}
	return q
}

// answersWithCorrect 前 n 题答对，其余答错
func answersWithCorrect(q *model.Quiz, n int) model.AnswerSet {
	answers := model.AnswerSet{}
	for i, qq := range q.Questions {
		if i < n {
			answers[qq.ID] = qq.CorrectIndex
		} else {
			answers[qq.ID] = (qq.CorrectIndex + 1) % len(qq.Options)
		}
	}
	return answers
}

// seededStore 课程 1 / 模块 10 / 五题测验 / 学员 42
func seededStore() *memStore {
	s := newMemStore()
	course := &model.Course{Title: "Go Basics", IsPublished: true}
	course.ID = 1
	module := &model.Module{CourseID: 1, Title: "Intro"}
	module.ID = 10
	user := &model.User{Name: "Ada", Email: "ada@example.com", Role: model.Student}
	user.ID = 42

	s.courses[1] = course
	s.modules[10] = module
	s.quizzes[10] = fiveQuestionQuiz(10)
	s.users[42] = user
	return s
}

type stubRenderer struct {
	url string
	err error
}

func (r stubRenderer) Render(ctx context.Context, cert *model.Certificate) (string, error) {
	return r.url, r.err
}
