package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/adventskalender/backend/internal/hash"
	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/models"
	"github.com/adventskalender/backend/internal/ratelimit"
	"github.com/adventskalender/backend/internal/repo"
	"github.com/adventskalender/backend/internal/tokens"
)

type AuthService struct {
	Repo    *repo.GormRepo
	Tokens  *tokens.Issuer
	Limiter *ratelimit.Limiter
	Audit   *AuditService
}

// Authenticate verifies a username/password pair and mints a signed
// token. The rate limiter gates the attempt before any credential work;
// a limited call mutates nothing and issues nothing. The unknown-user
// path still burns one bcrypt comparison against a dummy hash so its
// latency matches the wrong-password path.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate", "username", username)

	if s.Limiter != nil && s.Limiter.IsLimited("login:"+username) {
		l.Warn("login_rate_limited")
		return "", ErrRateLimited
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repo.ErrUserNotFound) {
			l.Error("login_failed", "reason", "user lookup failed", "error", err)
			return "", ErrInternal
		}
		_ = hash.CheckPassword(hash.DummyHash, password)
		l.Warn("login_failed", "reason", "unknown user")
		s.auditFailedLogin(ctx, nil, username)
		return "", ErrUnauthorized
	}

	if err := hash.CheckPassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			l.Error("login_failed", "reason", "password comparison failed", "error", err)
			return "", ErrInternal
		}
		l.Warn("login_failed", "reason", "wrong password")
		s.auditFailedLogin(ctx, &user.ID, username)
		return "", ErrUnauthorized
	}

	token, err := s.Tokens.Issue(user.Username)
	if err != nil {
		l.Error("login_failed", "reason", "token signing failed", "error", err)
		return "", ErrInternal
	}

	desc := fmt.Sprintf("user %s logged in", username)
	s.Audit.Record(ctx, models.ActionSuccessfulLogin, &user.ID, &desc)
	l.Info("login_successful")

	return token, nil
}

// ChangePassword sets a new password for the calling user. Both
// supplied values must match; the frontend sends the password twice.
func (s *AuthService) ChangePassword(ctx context.Context, username, firstTime, secondTime string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "username", username)

	if firstTime == "" || firstTime != secondTime {
		return ErrValidation
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrUnauthorized
		}
		l.Error("password_change_failed", "reason", "user lookup failed", "error", err)
		return ErrInternal
	}

	passwordHash, err := hash.HashPassword(firstTime)
	if err != nil {
		l.Error("password_change_failed", "reason", "cannot hash the password", "error", err)
		return ErrInternal
	}

	if err := s.Repo.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		l.Error("password_change_failed", "reason", "update failed", "error", err)
		return ErrInternal
	}

	desc := fmt.Sprintf("password changed for user %s", username)
	s.Audit.Record(ctx, models.ActionPasswordChanged, &user.ID, &desc)
	l.Info("password_changed")

	return nil
}

func (s *AuthService) auditFailedLogin(ctx context.Context, userID *uint, username string) {
	desc := fmt.Sprintf("failed login attempt for %s", username)
	s.Audit.Record(ctx, models.ActionFailedLogin, userID, &desc)
}
