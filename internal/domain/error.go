package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrForbidden           = errors.New("access denied")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrDependencyUnmet     = errors.New("required step output missing")
	ErrPipelineFinished    = errors.New("pipeline already finished")
	ErrAICallFailed        = errors.New("ai call failed")
	ErrAIParse             = errors.New("ai response could not be parsed")
)
