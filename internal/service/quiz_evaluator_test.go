package service

import (
	"learnhub_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateQuizEmptyQuiz(t *testing.T) {
	result := EvaluateQuiz(&model.Quiz{}, model.AnswerSet{1: 0}, 80)
	assert.Equal(t, model.QuizResult{Score: 0, Total: 0, Percentage: 0, Passed: false}, result)

	assert.Equal(t, model.QuizResult{}, EvaluateQuiz(nil, nil, 80))
}

func TestEvaluateQuizScenarios(t *testing.T) {
	quiz := fiveQuestionQuiz(10)

	tests := []struct {
		name       string
		correct    int
		wantScore  int
		wantPct    float64
		wantPassed bool
	}{
		{"four of five passes at exactly 80", 4, 4, 80, true},
		{"three of five fails", 3, 3, 60, false},
		{"all correct", 5, 5, 100, true},
		{"none correct", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateQuiz(quiz, answersWithCorrect(quiz, tt.correct), 80)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, 5, result.Total)
			assert.Equal(t, tt.wantPct, result.Percentage)
			assert.Equal(t, tt.wantPassed, result.Passed)
		})
	}
}

func TestEvaluateQuizUnansweredCountsAsIncorrect(t *testing.T) {
	quiz := fiveQuestionQuiz(10)

	answers := answersWithCorrect(quiz, 5)
	delete(answers, quiz.Questions[0].ID)
	answers[quiz.Questions[1].ID] = model.Unanswered

	result := EvaluateQuiz(quiz, answers, 80)
	assert.Equal(t, 3, result.Score)
	assert.False(t, result.Passed)

	empty := EvaluateQuiz(quiz, model.AnswerSet{}, 80)
	assert.Equal(t, 0, empty.Score)
	assert.Equal(t, 5, empty.Total)
}

func TestEvaluateQuizIgnoresUnknownQuestions(t *testing.T) {
	quiz := fiveQuestionQuiz(10)
	answers := answersWithCorrect(quiz, 4)
	answers[999] = 0

	result := EvaluateQuiz(quiz, answers, 80)
	assert.Equal(t, 4, result.Score)
	assert.Equal(t, 5, result.Total)
}

func TestEvaluateQuizIsIdempotent(t *testing.T) {
	quiz := fiveQuestionQuiz(10)
	answers := answersWithCorrect(quiz, 3)

	first := EvaluateQuiz(quiz, answers, 80)
	second := EvaluateQuiz(quiz, answers, 80)
	assert.Equal(t, first, second)
}

func TestQuizEvaluatorThreshold(t *testing.T) {
	e := NewQuizEvaluator(0)
	assert.Equal(t, 80.0, e.PassThreshold())

	e.SetPassThreshold(150)
	assert.Equal(t, 80.0, e.PassThreshold(), "out of range threshold ignored")

	e.SetPassThreshold(60)
	assert.Equal(t, 60.0, e.PassThreshold())

	quiz := fiveQuestionQuiz(10)
	answers := answersWithCorrect(quiz, 3)
	assert.True(t, e.Evaluate(quiz, answers, nil).Passed)

	strict := &model.Course{PassThreshold: 100}
	assert.Equal(t, 100.0, e.ThresholdFor(strict))
	assert.False(t, e.Evaluate(quiz, answers, strict).Passed)

	unset := &model.Course{}
	assert.Equal(t, 60.0, e.ThresholdFor(unset))
}
