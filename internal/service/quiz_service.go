package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type QuizRepository interface {
	GetQuizByModule(ctx context.Context, moduleID uint) (*model.Quiz, error)
	SaveQuiz(ctx context.Context, quiz *model.Quiz) error
	DeleteQuiz(ctx context.Context, quizID uint) error
}

type QuizQuestionInput struct {
	Text         string   `json:"text" binding:"required"`
	Options      []string `json:"options" binding:"required,min=1"`
	CorrectIndex int      `json:"correctIndex"`
}

type QuizInput struct {
	Title     string              `json:"title" binding:"required,max=255"`
	Questions []QuizQuestionInput `json:"questions" binding:"required,min=1,dive"`
}

type QuizService struct {
	Quizzes QuizRepository
	Courses CourseStore
}

func NewQuizService(quizzes QuizRepository, courses CourseStore) *QuizService {
	return &QuizService{Quizzes: quizzes, Courses: courses}
}

// ReindexAfterRemoval 删除 options[removed] 后正确答案的新下标。
// options 为删除前的列表；越界的 removed 视为未删除，仅做范围纠正。
func ReindexAfterRemoval(options []string, correctIndex, removedPosition int) int {
	n := len(options)
	if removedPosition < 0 || removedPosition >= n {
		return util.ClampIndex(correctIndex, n)
	}
	remaining := n - 1
	switch {
	case remaining == 0:
		return 0
	case removedPosition < correctIndex:
		return util.ClampIndex(correctIndex-1, remaining)
	default:
		// 删除的正是正确选项时，落到原位置上的下一个选项（末尾则前移）
		return util.ClampIndex(correctIndex, remaining)
	}
}

func validateQuizInput(in QuizInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.Wrap(util.ErrInvalidQuiz, "title is required")
	}
	if len(in.Questions) == 0 {
		return errors.Wrap(util.ErrInvalidQuiz, "at least one question is required")
	}
	for i, q := range in.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return errors.Wrapf(util.ErrInvalidQuiz, "question %d: text is required", i+1)
		}
		if len(q.Options) == 0 {
			return errors.Wrapf(util.ErrInvalidQuiz, "question %d: at least one option is required", i+1)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex > len(q.Options)-1 {
			return errors.Wrapf(util.ErrInvalidQuiz, "question %d: correct index %d out of range", i+1, q.CorrectIndex)
		}
	}
	return nil
}

// SaveModuleQuiz 创建或整体替换模块测验
func (s *QuizService) SaveModuleQuiz(ctx context.Context, courseID, moduleID uint, in QuizInput) (*model.Quiz, error) {
	if err := validateQuizInput(in); err != nil {
		return nil, err
	}
	if _, err := s.Courses.GetModule(ctx, courseID, moduleID); err != nil {
		return nil, err
	}

	quiz := &model.Quiz{ModuleID: moduleID, Title: strings.TrimSpace(in.Title)}
	existing, err := s.Quizzes.GetQuizByModule(ctx, moduleID)
	switch {
	case err == nil:
		quiz.ID = existing.ID
		quiz.CreatedAt = existing.CreatedAt
	case !errors.Is(err, util.ErrNotFound):
		return nil, err
	}

	quiz.Questions = make([]model.QuizQuestion, 0, len(in.Questions))
	for i, q := range in.Questions {
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			Text:         strings.TrimSpace(q.Text),
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Order:        i,
		})
	}

	if err := s.Quizzes.SaveQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	logger.Log.Info("quiz saved",
		zap.Uint("moduleId", moduleID),
		zap.Uint("quizId", quiz.ID),
		zap.Int("questions", len(quiz.Questions)))
	return quiz, nil
}

// GetModuleQuiz 管理端查看，含正确答案
func (s *QuizService) GetModuleQuiz(ctx context.Context, courseID, moduleID uint) (*model.Quiz, error) {
	if _, err := s.Courses.GetModule(ctx, courseID, moduleID); err != nil {
		return nil, err
	}
	return s.Quizzes.GetQuizByModule(ctx, moduleID)
}

func (s *QuizService) DeleteModuleQuiz(ctx context.Context, courseID, moduleID uint) error {
	quiz, err := s.GetModuleQuiz(ctx, courseID, moduleID)
	if err != nil {
		return err
	}
	return s.Quizzes.DeleteQuiz(ctx, quiz.ID)
}

// RemoveOption 删除题目中的一个选项并修正正确答案下标，题目至少保留一个选项
func (s *QuizService) RemoveOption(ctx context.Context, courseID, moduleID, questionID uint, position int) (*model.Quiz, error) {
	quiz, err := s.GetModuleQuiz(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.Wrap(util.ErrNotFound, "question")
	}

	q := &quiz.Questions[idx]
	if position < 0 || position >= len(q.Options) {
		return nil, errors.Wrapf(util.ErrInvalidQuiz, "option position %d out of range", position)
	}
	if len(q.Options) == 1 {
		return nil, errors.Wrap(util.ErrInvalidQuiz, "a question must keep at least one option")
	}

	q.CorrectIndex = ReindexAfterRemoval(q.Options, q.CorrectIndex, position)
	opts := make([]string, 0, len(q.Options)-1)
	opts = append(opts, q.Options[:position]...)
	opts = append(opts, q.Options[position+1:]...)
	q.Options = opts

	if err := s.Quizzes.SaveQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}
