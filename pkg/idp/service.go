// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package idp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/store"
)

// DefaultAccessTTL and DefaultRefreshTTL are the local IdP's JWT
// lifetimes. Independent of a delegate's own AT/RT TTLs in pkg/delegate.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Session is what register/login/refresh hand back to the caller.
type Session struct {
	UserID       [16]byte
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Service is the reference local IdP of spec.md §6.
type Service struct {
	log      *zap.Logger
	accounts store.UserAccountDb
	verifier *auth.HMACVerifier
}

// NewService constructs a Service.
func NewService(log *zap.Logger, accounts store.UserAccountDb, verifier *auth.HMACVerifier) *Service {
	return &Service{log: log, accounts: accounts, verifier: verifier}
}

// Register creates a new user account and immediately signs it in.
func (s *Service) Register(ctx context.Context, email, password string) (Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, Error.Wrap(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, Error.Wrap(err)
	}
	userID := [16]byte(id)

	account := store.UserAccount{
		ID: userID, Email: email, PasswordHash: hash, CreatedAt: time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if err == store.ErrConflict {
			return Session{}, ErrEmailTaken.New("%s is already registered", email)
		}
		return Session{}, Error.Wrap(err)
	}

	s.log.Info("user registered", zap.String("email", email))
	return s.issueSession(userID)
}

// Login verifies email/password and issues a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrInvalidCredentials.New("no such user")
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials.New("wrong password")
	}
	return s.issueSession(account.ID)
}

// Refresh exchanges a valid refresh JWT for a fresh session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	userID, err := s.verifier.VerifyRefresh(refreshToken)
	if err != nil {
		return Session{}, ErrInvalidCredentials.Wrap(err)
	}
	if _, err := s.accounts.GetByID(ctx, userID); err != nil {
		return Session{}, ErrInvalidCredentials.New("no such user")
	}
	return s.issueSession(userID)
}

func (s *Service) issueSession(userID [16]byte) (Session, error) {
	now := time.Now()
	accessExpiry := now.Add(DefaultAccessTTL)
	at, err := s.verifier.Sign(userID, accessExpiry)
	if err != nil {
		return Session{}, Error.Wrap(err)
	}
	rt, err := s.verifier.SignRefresh(userID, now.Add(DefaultRefreshTTL))
	if err != nil {
		return Session{}, Error.Wrap(err)
	}
	return Session{
		UserID: userID, AccessToken: at, RefreshToken: rt, ExpiresAt: accessExpiry,
	}, nil
}
