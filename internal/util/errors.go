package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrTopicNotFound        = errors.New("topic not found")
	ErrTopicLevelNotFound   = errors.New("topic level not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskNotCreated       = errors.New("task could not be created")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	ErrInvalidTaskType      = errors.New("invalid task type")
	ErrInvalidLevel         = errors.New("level must be a positive integer")
	ErrInvalidScore         = errors.New("score must be a non-negative number")
	ErrInvalidDuration      = errors.New("duration must be non-negative")
	ErrAIUnavailable        = errors.New("content generation service unavailable")
)
