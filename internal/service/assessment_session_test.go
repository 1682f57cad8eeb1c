package service

import (
	"context"
	"encoding/json"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(store *memStore) *AssessmentSession {
	certs := NewCertificateService(store, store, nil)
	return NewAssessmentSession(learner42, 1, 10, store, NewQuizEvaluator(80), certs)
}

func TestSessionLoad(t *testing.T) {
	store := seededStore()
	s := newTestSession(store)
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, StateLoaded, s.State())

	snap := s.Snapshot()
	assert.Equal(t, "Go Basics", snap.Course.Title)
	assert.Len(t, snap.Quiz.Questions, 5)
	assert.Equal(t, 80.0, snap.PassThreshold)

	// 已加载不重复拉取
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, store.quizCalls)
}

func TestSessionLoadNotFoundIsTerminal(t *testing.T) {
	store := seededStore()
	delete(store.quizzes, 10)
	s := newTestSession(store)

	err := s.Load(context.Background())
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.Equal(t, StateNotFound, s.State())

	err = s.Load(context.Background())
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.Equal(t, 1, store.quizCalls)

	_, err = s.Submit(context.Background(), model.AnswerSet{})
	assert.True(t, errors.Is(err, util.ErrInvalidSessionState))
}

func TestSessionLoadUnknownModule(t *testing.T) {
	store := seededStore()
	s := NewAssessmentSession(learner42, 1, 99, store, NewQuizEvaluator(80), nil)

	err := s.Load(context.Background())
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.Equal(t, StateNotFound, s.State())
	assert.Equal(t, 0, store.quizCalls)
}

func TestSessionLoadErrorIsRetryable(t *testing.T) {
	store := seededStore()
	store.quizErr = errors.Wrap(util.ErrFetchFailure, "timeout")
	s := newTestSession(store)

	err := s.Load(context.Background())
	assert.True(t, errors.Is(err, util.ErrFetchFailure))
	assert.Equal(t, StateLoadError, s.State())

	store.mu.Lock()
	store.quizErr = nil
	store.mu.Unlock()

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, StateLoaded, s.State())
}

func TestSessionSubmitRequiresLoaded(t *testing.T) {
	s := newTestSession(seededStore())
	_, err := s.Submit(context.Background(), model.AnswerSet{})
	assert.True(t, errors.Is(err, util.ErrInvalidSessionState))
}

// gatedEvaluator 在评分时阻塞，直到 release 关闭
type gatedEvaluator struct {
	*QuizEvaluator
	entered chan struct{}
	release chan struct{}
}

func (g *gatedEvaluator) Evaluate(quiz *model.Quiz, answers model.AnswerSet, course *model.Course) model.QuizResult {
	close(g.entered)
	<-g.release
	return g.QuizEvaluator.Evaluate(quiz, answers, course)
}

func TestSessionRefusesSubmitWhileEvaluating(t *testing.T) {
	store := seededStore()
	gate := &gatedEvaluator{
		QuizEvaluator: NewQuizEvaluator(80),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := NewAssessmentSession(learner42, 1, 10, store, gate, NewCertificateService(store, store, nil))
	require.NoError(t, s.Load(context.Background()))
	answers := answersWithCorrect(fiveQuestionQuiz(10), 5)

	const submitters = 8
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		accepted = make(chan (<-chan Outcome), submitters)
		refused  = make(chan error, submitters)
	)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ch, err := s.Submit(context.Background(), answers)
			if err != nil {
				refused <- err
				return
			}
			accepted <- ch
		}()
	}
	close(start)
	wg.Wait()
	close(accepted)
	close(refused)

	// 评分仍阻塞时，其余提交全部被拒
	<-gate.entered
	assert.Equal(t, StateEvaluating, s.State())
	require.Len(t, accepted, 1)
	assert.Len(t, refused, submitters-1)
	for err := range refused {
		assert.Equal(t, util.ErrSubmissionInFlight, err)
	}

	close(gate.release)
	var outcomes []Outcome
	for o := range <-accepted {
		outcomes = append(outcomes, o)
	}
	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeCertificateIssued, outcomes[1].Kind)
	assert.Equal(t, 1, s.Snapshot().Attempts)
	assert.Len(t, store.certificates(), 1)
}

func TestSessionPassIssuesCertificate(t *testing.T) {
	store := seededStore()
	s := newTestSession(store)
	require.NoError(t, s.Load(context.Background()))

	var stateAtIssue SessionState
	store.appendHook = func() { stateAtIssue = s.State() }

	quiz := fiveQuestionQuiz(10)
	outcomes, err := s.SubmitAndWait(context.Background(), answersWithCorrect(quiz, 4))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, OutcomeResult, outcomes[0].Kind)
	require.NotNil(t, outcomes[0].QuizResult)
	assert.Equal(t, 4, outcomes[0].Score)
	assert.Equal(t, 5, outcomes[0].Total)
	assert.True(t, outcomes[0].Passed)

	assert.Equal(t, OutcomeCertificateIssued, outcomes[1].Kind)
	require.NotNil(t, outcomes[1].Certificate)
	assert.Equal(t, uint(1), outcomes[1].Certificate.CourseID)

	// 签发开始时结果已产生
	assert.Equal(t, StateResult, stateAtIssue)
	assert.Equal(t, StateCertificateIssued, s.State())
	assert.Len(t, store.certificates(), 1)

	// 证书只追加：同一会话再次通过得到第二张证书
	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, StateLoaded, s.State())
	assert.Nil(t, s.Snapshot().Certificate)

	outcomes, err = s.SubmitAndWait(context.Background(), answersWithCorrect(quiz, 5))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeCertificateIssued, outcomes[1].Kind)

	certs := store.certificates()
	require.Len(t, certs, 2)
	assert.NotEqual(t, certs[0].ID, certs[1].ID)
	assert.Equal(t, 2, s.Snapshot().Attempts)
}

func TestSessionRetryRefusedWhileIssuing(t *testing.T) {
	store := seededStore()
	s := newTestSession(store)
	require.NoError(t, s.Load(context.Background()))

	var retryErr error
	store.appendHook = func() { retryErr = s.Retry(context.Background()) }

	_, err := s.SubmitAndWait(context.Background(), answersWithCorrect(fiveQuestionQuiz(10), 5))
	require.NoError(t, err)
	assert.True(t, errors.Is(retryErr, util.ErrInvalidSessionState))
	assert.Equal(t, StateCertificateIssued, s.State())
}

func TestSessionRetryPicksUpReplacedQuiz(t *testing.T) {
	store := seededStore()
	s := newTestSession(store)
	require.NoError(t, s.Load(context.Background()))
	original := fiveQuestionQuiz(10)

	outcomes, err := s.SubmitAndWait(context.Background(), answersWithCorrect(original, 2))
	require.NoError(t, err)
	require.False(t, outcomes[0].Passed)

	// 管理员整体替换测验：标题和答案都变了
	replaced := fiveQuestionQuiz(10)
	replaced.Title = "Revised quiz"
	for i := range replaced.Questions {
		replaced.Questions[i].CorrectIndex = 2
	}
	store.mu.Lock()
	store.quizzes[10] = replaced
	store.mu.Unlock()

	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, StateLoaded, s.State())
	assert.Equal(t, "Revised quiz", s.Snapshot().Quiz.Title)
	assert.Equal(t, 2, store.quizCalls)

	// 旧答案在新测验下不再全对
	outcomes, err = s.SubmitAndWait(context.Background(), answersWithCorrect(original, 5))
	require.NoError(t, err)
	assert.False(t, outcomes[0].Passed)

	require.NoError(t, s.Retry(context.Background()))
	outcomes, err = s.SubmitAndWait(context.Background(), answersWithCorrect(replaced, 5))
	require.NoError(t, err)
	assert.True(t, outcomes[0].Passed)
}

func TestSessionRetryAfterQuizDeleted(t *testing.T) {
	store := seededStore()
	s := newTestSession(store)
	require.NoError(t, s.Load(context.Background()))

	_, err := s.SubmitAndWait(context.Background(), answersWithCorrect(fiveQuestionQuiz(10), 1))
	require.NoError(t, err)

	store.mu.Lock()
	delete(store.quizzes, 10)
	store.mu.Unlock()

	err = s.Retry(context.Background())
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.Equal(t, StateNotFound, s.State())
	assert.Nil(t, s.Snapshot().Quiz)
}

func TestSessionFailThenRetry(t *testing.T) {
	store := seededStore()
	s := newTestSession(store)
	require.NoError(t, s.Load(context.Background()))
	quiz := fiveQuestionQuiz(10)

	outcomes, err := s.SubmitAndWait(context.Background(), answersWithCorrect(quiz, 3))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeResult, outcomes[0].Kind)
	assert.Equal(t, 3, outcomes[0].Score)
	assert.False(t, outcomes[0].Passed)
	assert.Equal(t, StateResult, s.State())
	assert.Empty(t, store.certificates())

	_, err = s.Submit(context.Background(), answersWithCorrect(quiz, 5))
	assert.True(t, errors.Is(err, util.ErrInvalidSessionState), "must retry first")

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Retry(context.Background()))
		assert.Equal(t, StateLoaded, s.State())
		s.mu.Lock()
		assert.Empty(t, s.answers)
		s.mu.Unlock()
		assert.Nil(t, s.Snapshot().Result)

		if i < 2 {
			_, err := s.SubmitAndWait(context.Background(), answersWithCorrect(quiz, 1))
			require.NoError(t, err)
		}
	}

	outcomes, err = s.SubmitAndWait(context.Background(), answersWithCorrect(quiz, 5))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeCertificateIssued, outcomes[1].Kind)
	assert.Equal(t, 4, s.Snapshot().Attempts)
}

func TestSessionIssueFailureKeepsResult(t *testing.T) {
	store := seededStore()
	store.appendErr = errors.Wrap(util.ErrFetchFailure, "write refused")
	s := newTestSession(store)
	require.NoError(t, s.Load(context.Background()))
	quiz := fiveQuestionQuiz(10)

	outcomes, err := s.SubmitAndWait(context.Background(), answersWithCorrect(quiz, 5))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, OutcomeResult, outcomes[0].Kind)
	assert.True(t, outcomes[0].Passed)
	assert.Equal(t, OutcomeCertificateIssueFailed, outcomes[1].Kind)
	assert.NotEmpty(t, outcomes[1].Reason)
	assert.Nil(t, outcomes[1].Certificate)

	snap := s.Snapshot()
	assert.Equal(t, StateCertificateIssueFailed, snap.State)
	require.NotNil(t, snap.Result)
	assert.True(t, snap.Result.Passed)
	assert.Equal(t, outcomes[1].Reason, snap.IssueReason)

	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, StateLoaded, s.State())
}

func TestSessionSubmitSurvivesCanceledContext(t *testing.T) {
	store := seededStore()
	s := newTestSession(store)
	require.NoError(t, s.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := s.SubmitAndWait(ctx, answersWithCorrect(fiveQuestionQuiz(10), 5))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeCertificateIssued, outcomes[1].Kind)
}

func TestOutcomeJSON(t *testing.T) {
	result := model.QuizResult{Score: 4, Total: 5, Percentage: 80, Passed: true}
	data, err := json.Marshal(Outcome{Kind: OutcomeResult, QuizResult: &result})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"result","score":4,"total":5,"percentage":80,"passed":true}`, string(data))

	data, err = json.Marshal(Outcome{Kind: OutcomeCertificateIssueFailed, Reason: "store down"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"certificateIssueFailed","reason":"store down"}`, string(data))
}

func TestSessionManagerSweep(t *testing.T) {
	store := seededStore()
	m := NewSessionManager(store, NewQuizEvaluator(80), NewCertificateService(store, store, nil))
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	a := m.Get(learner42, 1, 10)
	assert.Same(t, a, m.Get(learner42, 1, 10))

	other := Identity{UserID: 43}
	b := m.Get(other, 1, 10)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, m.Len())

	b.mu.Lock()
	b.state = StateEvaluating
	b.mu.Unlock()

	now = now.Add(31 * time.Minute)
	removed := m.Sweep(30 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := m.Lookup(a.Key())
	assert.False(t, ok)
	_, ok = m.Lookup(b.Key())
	assert.True(t, ok, "evaluating session kept")
}

func TestAssessmentServiceRequiresIdentity(t *testing.T) {
	store := seededStore()
	svc := NewAssessmentService(ContextIdentityProvider{}, NewSessionManager(store, NewQuizEvaluator(80), nil))

	_, err := svc.Load(context.Background(), 1, 10)
	assert.Equal(t, util.ErrUnauthorized, err)
}

func TestAssessmentServiceFlow(t *testing.T) {
	store := seededStore()
	sessions := NewSessionManager(store, NewQuizEvaluator(80), NewCertificateService(store, store, nil))
	svc := NewAssessmentService(ContextIdentityProvider{}, sessions)
	ctx := WithIdentity(context.Background(), learner42)

	view, err := svc.State(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)

	view, err = svc.Load(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, view.State)
	require.NotNil(t, view.Quiz)
	assert.Len(t, view.Quiz.Questions, 5)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correctIndex")

	outcomes, err := svc.SubmitAndWait(ctx, 1, 10, answersWithCorrect(fiveQuestionQuiz(10), 3))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	view, err = svc.Retry(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, view.State)
	assert.Nil(t, view.Result)
}

func TestAssessmentServiceSubmitLoadsIdleSession(t *testing.T) {
	store := seededStore()
	sessions := NewSessionManager(store, NewQuizEvaluator(80), NewCertificateService(store, store, nil))
	svc := NewAssessmentService(ContextIdentityProvider{}, sessions)
	ctx := WithIdentity(context.Background(), learner42)

	outcomes, err := svc.SubmitAndWait(ctx, 1, 10, answersWithCorrect(fiveQuestionQuiz(10), 5))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	view, err := svc.State(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, StateCertificateIssued, view.State)
	require.NotNil(t, view.Certificate)
}

func TestAssessmentServiceNotFoundIsNotCached(t *testing.T) {
	store := seededStore()
	quiz := store.quizzes[10]
	delete(store.quizzes, 10)
	sessions := NewSessionManager(store, NewQuizEvaluator(80), nil)
	svc := NewAssessmentService(ContextIdentityProvider{}, sessions)
	ctx := WithIdentity(context.Background(), learner42)

	_, err := svc.Load(ctx, 1, 10)
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.Equal(t, 0, sessions.Len())

	store.mu.Lock()
	store.quizzes[10] = quiz
	store.mu.Unlock()

	view, err := svc.Load(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, view.State)
}

func TestAssessmentServiceRetryWithoutSession(t *testing.T) {
	store := seededStore()
	svc := NewAssessmentService(ContextIdentityProvider{}, NewSessionManager(store, NewQuizEvaluator(80), nil))
	ctx := WithIdentity(context.Background(), learner42)

	_, err := svc.Retry(ctx, 1, 10)
	assert.True(t, errors.Is(err, util.ErrInvalidSessionState))
}
