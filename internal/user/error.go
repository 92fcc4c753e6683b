package user

import (
	"errors"

	"bookheaven-be/internal/apperr"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "Invalid email or password")
)
