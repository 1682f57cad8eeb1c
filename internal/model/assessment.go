package model

// AnswerSet 题目ID -> 所选选项下标；缺失或为 Unanswered 视为未作答
type AnswerSet map[uint]int

const Unanswered = -1

// QuizResult 测验结果，仅在内存中计算，不落库
type QuizResult struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}
