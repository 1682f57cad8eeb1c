package controller

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContent struct {
	mu        sync.Mutex
	quiz      *model.Quiz
	certs     []model.Certificate
	appendErr error
}

func (f *fakeContent) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	if id != 1 {
		return nil, errors.Wrap(util.ErrNotFound, "course")
	}
	c := &model.Course{Title: "Go Basics", IsPublished: true}
	c.ID = 1
	return c, nil
}

func (f *fakeContent) GetModule(ctx context.Context, courseID, moduleID uint) (*model.Module, error) {
	if courseID != 1 || moduleID != 10 {
		return nil, errors.Wrap(util.ErrNotFound, "module")
	}
	m := &model.Module{CourseID: 1, Title: "Intro"}
	m.ID = 10
	return m, nil
}

func (f *fakeContent) GetQuiz(ctx context.Context, id uint) (*model.Quiz, error) {
	return f.GetQuizByModule(ctx, 10)
}

func (f *fakeContent) GetQuizByModule(ctx context.Context, moduleID uint) (*model.Quiz, error) {
	if f.quiz == nil || moduleID != 10 {
		return nil, errors.Wrap(util.ErrNotFound, "quiz")
	}
	return f.quiz, nil
}

func (f *fakeContent) GetUser(ctx context.Context, id uint) (*model.User, error) {
	u := &model.User{Name: "Ada", Email: "ada@example.com"}
	u.ID = id
	return u, nil
}

func (f *fakeContent) AppendCertificate(ctx context.Context, userID uint, cert *model.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.certs = append(f.certs, *cert)
	return nil
}

func (f *fakeContent) SetCertificateURL(ctx context.Context, certID, url string) error { return nil }

func (f *fakeContent) ListCertificates(ctx context.Context, userID uint) ([]model.Certificate, error) {
	return f.certs, nil
}

func (f *fakeContent) FindCertificate(ctx context.Context, id string) (*model.Certificate, error) {
	return nil, errors.Wrap(util.ErrNotFound, "certificate")
}

// twoQuestionQuiz 正确答案：题1 -> 1，题2 -> 0
func twoQuestionQuiz() *model.Quiz {
	q := &model.Quiz{ModuleID: 10, Title: "Intro quiz"}
	q.ID = 3
	q1 := model.QuizQuestion{Text: "q1", Options: []string{"a", "b"}, CorrectIndex: 1, Order: 0}
	q1.ID = 1
	q2 := model.QuizQuestion{Text: "q2", Options: []string{"c", "d"}, CorrectIndex: 0, Order: 1}
	q2.ID = 2
	q.Questions = []model.QuizQuestion{q1, q2}
	return q
}

func setupAssessmentRouter(store *fakeContent) *gin.Engine {
	gin.SetMode(gin.TestMode)

	certs := service.NewCertificateService(store, store, nil)
	sessions := service.NewSessionManager(store, service.NewQuizEvaluator(80), certs)
	ctrl := NewAssessmentController(service.NewAssessmentService(service.ContextIdentityProvider{}, sessions))

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") == "" {
			c.Next()
			return
		}
		ctx := service.WithIdentity(c.Request.Context(), service.Identity{UserID: 42, DisplayName: "Ada"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	g := api.Group("/courses/:courseId/modules/:moduleId/assessment")
	g.GET("", ctrl.LoadAssessment)
	g.GET("/state", ctrl.State)
	g.POST("/submit", ctrl.Submit)
	g.POST("/submit/stream", ctrl.SubmitStream)
	g.POST("/retry", ctrl.Retry)
	return r
}

func doRequest(r *gin.Engine, method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-Test-User", "42")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

const base = "/api/courses/1/modules/10/assessment"

func TestLoadAssessmentHidesAnswers(t *testing.T) {
	r := setupAssessmentRouter(&fakeContent{quiz: twoQuestionQuiz()})

	w := doRequest(r, http.MethodGet, base, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correctIndex")

	var view service.AssessmentView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, service.StateLoaded, view.State)
	assert.Len(t, view.Quiz.Questions, 2)
}

func TestLoadAssessmentErrors(t *testing.T) {
	r := setupAssessmentRouter(&fakeContent{})

	w := doRequest(r, http.MethodGet, base, "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not available", decode(t, w).Message)

	w = doRequest(r, http.MethodGet, base, "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodGet, "/api/courses/abc/modules/10/assessment", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitPassingReturnsResultThenCertificate(t *testing.T) {
	store := &fakeContent{quiz: twoQuestionQuiz()}
	r := setupAssessmentRouter(store)

	w := doRequest(r, http.MethodPost, base+"/submit", `{"answers":{"1":1,"2":0}}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	var outcomes []map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, "result", outcomes[0]["kind"])
	assert.Equal(t, float64(2), outcomes[0]["score"])
	assert.Equal(t, float64(2), outcomes[0]["total"])
	assert.Equal(t, true, outcomes[0]["passed"])
	assert.Equal(t, "certificateIssued", outcomes[1]["kind"])
	assert.NotNil(t, outcomes[1]["certificate"])
	assert.Len(t, store.certs, 1)
}

func TestSubmitFailingThenRetry(t *testing.T) {
	r := setupAssessmentRouter(&fakeContent{quiz: twoQuestionQuiz()})

	w := doRequest(r, http.MethodPost, base+"/submit", `{"answers":{"1":1}}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	var outcomes []map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &outcomes))
	require.Len(t, outcomes, 1)
	assert.Equal(t, false, outcomes[0]["passed"])

	w = doRequest(r, http.MethodPost, base+"/submit", `{"answers":{"1":1,"2":0}}`, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodPost, base+"/retry", "", true)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, base+"/state", "", true)
	var view service.AssessmentView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, service.StateLoaded, view.State)
	assert.Equal(t, 1, view.Attempts)
}

func TestSubmitIssueFailureStillReturnsResult(t *testing.T) {
	store := &fakeContent{quiz: twoQuestionQuiz(), appendErr: errors.Wrap(util.ErrFetchFailure, "down")}
	r := setupAssessmentRouter(store)

	w := doRequest(r, http.MethodPost, base+"/submit", `{"answers":{"1":1,"2":0}}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	var outcomes []map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, true, outcomes[0]["passed"])
	assert.Equal(t, "certificateIssueFailed", outcomes[1]["kind"])
	assert.NotEmpty(t, outcomes[1]["reason"])
}

func TestSubmitStreamEmitsEventsInOrder(t *testing.T) {
	r := setupAssessmentRouter(&fakeContent{quiz: twoQuestionQuiz()})

	w := doRequest(r, http.MethodPost, base+"/submit/stream", `{"answers":{"1":1,"2":0}}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	var events []string
	scanner := bufio.NewScanner(bytes.NewReader(w.Body.Bytes()))
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "event:") {
			events = append(events, strings.TrimSpace(strings.TrimPrefix(line, "event:")))
		}
	}
	assert.Equal(t, []string{"result", "certificateIssued", "end"}, events)
}

func TestSubmitRejectsMalformedBody(t *testing.T) {
	r := setupAssessmentRouter(&fakeContent{quiz: twoQuestionQuiz()})

	w := doRequest(r, http.MethodPost, base+"/submit", `{"answers":[1,2]}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
