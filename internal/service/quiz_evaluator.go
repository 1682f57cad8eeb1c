package service

import (
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"sync"
)

// EvaluateQuiz 纯函数：逐题比较所选下标与正确下标，未作答计为错误
func EvaluateQuiz(quiz *model.Quiz, answers model.AnswerSet, passThreshold float64) model.QuizResult {
	if quiz == nil || len(quiz.Questions) == 0 {
		return model.QuizResult{}
	}

	score := 0
	for _, q := range quiz.Questions {
		selected, ok := answers[q.ID]
		if ok && selected != model.Unanswered && selected == q.CorrectIndex {
			score++
		}
	}

	total := len(quiz.Questions)
	percentage := float64(score*100) / float64(total)

	return model.QuizResult{
		Score:      score,
		Total:      total,
		Percentage: percentage,
		Passed:     percentage >= passThreshold,
	}
}

// QuizEvaluator 持有可热更新的全局及格线，课程可单独覆盖
type QuizEvaluator struct {
	mu            sync.RWMutex
	passThreshold float64
}

func NewQuizEvaluator(passThreshold float64) *QuizEvaluator {
	if passThreshold <= 0 || passThreshold > 100 {
		passThreshold = config.DefaultPassThreshold
	}
	return &QuizEvaluator{passThreshold: passThreshold}
}

func (e *QuizEvaluator) PassThreshold() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.passThreshold
}

func (e *QuizEvaluator) SetPassThreshold(t float64) {
	if t <= 0 || t > 100 {
		return
	}
	e.mu.Lock()
	e.passThreshold = t
	e.mu.Unlock()
}

// ThresholdFor 课程设置了及格线时优先使用
func (e *QuizEvaluator) ThresholdFor(course *model.Course) float64 {
	if course != nil && course.PassThreshold > 0 && course.PassThreshold <= 100 {
		return course.PassThreshold
	}
	return e.PassThreshold()
}

func (e *QuizEvaluator) Evaluate(quiz *model.Quiz, answers model.AnswerSet, course *model.Course) model.QuizResult {
	return EvaluateQuiz(quiz, answers, e.ThresholdFor(course))
}
