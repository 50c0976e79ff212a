package storage

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrSessionNotFound  = errors.New("test session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrStatsNotCached   = errors.New("stats not cached")
)
