package service

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("invalid username or password")
	ErrRateLimited  = errors.New("too many attempts")
	ErrUnknownActor = errors.New("acting user not found")
	ErrInternal     = errors.New("internal error")
)
