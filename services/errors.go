package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrValidation         = errors.New("invalid request")
	ErrNoEvents           = errors.New("no events available")
	ErrRoundClosed        = errors.New("game round already completed")
	ErrAlreadyAnswered    = errors.New("question already answered in this round")
)
