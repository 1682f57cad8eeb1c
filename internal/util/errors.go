package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrInvalidLogin     = errors.New("invalid credentials")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidUpload    = errors.New("invalid upload")
	ErrInvalidInput     = errors.New("invalid input")

	// 测验/证书流程的错误分类
	ErrNotFound            = errors.New("not found")
	ErrFetchFailure        = errors.New("fetch failure")
	ErrIssuanceFailure     = errors.New("certificate issuance failure")
	ErrCorruptRecord       = errors.New("corrupt record")
	ErrSubmissionInFlight  = errors.New("submission already in flight")
	ErrInvalidSessionState = errors.New("invalid assessment session state")
	ErrInvalidQuiz         = errors.New("invalid quiz")
)
