package user

import (
	"context"
	"errors"
	"time"

	"bookheaven-be/internal/auth"
	"bookheaven-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Login(ctx context.Context, email, password string) (string, *Account, error)
	GetLibrary(ctx context.Context) ([]LibraryEntry, error)
}

type service struct {
	repo      Repository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(repo Repository, jwtSecret []byte, tokenTTL time.Duration) Service {
	return &service{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "Login"))

	a, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		log.Info("login for unknown email")
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if !CheckPasswordHash(password, a.Password) {
		log.Info("password mismatch", zap.String("user_id", a.ID.String()))
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(s.jwtSecret, auth.Actor{UserID: a.ID, Email: a.Email, Role: a.Role}, s.tokenTTL)
	if err != nil {
		log.Error("failed to generate jwt", zap.Error(err))
		return "", nil, err
	}

	return token, a, nil
}

// GetLibrary returns the purchased books of the acting account.
func (s *service) GetLibrary(ctx context.Context) ([]LibraryEntry, error) {
	actor, err := auth.Require(ctx, auth.ActionReadLibrary)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListLibrary(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []LibraryEntry{}
	}
	return entries, nil
}
