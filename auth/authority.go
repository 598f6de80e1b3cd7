// Package auth issues and validates the privileged session tokens used by
// moderation actions. Accounts come from process configuration; there is no
// lockout or throttling on repeated attempts, an accepted scope limitation.
package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"

	apperrors "anonchat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// LoginRequest is the boundary shape of an admin login attempt.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	Secret   string `json:"secret" validate:"required,max=128"`
}

// Authority owns the admin allow-list and the live session set. Sessions
// never expire by time; they end with explicit logout or process restart.
type Authority struct {
	mu       sync.RWMutex
	log      *slog.Logger
	key      []byte
	secret   string
	accounts map[string]string // username -> argon2id hash
	sessions map[string]string // token -> username
}

// NewAuthority hashes the configured plaintext passwords once at startup so
// nothing keeps them around afterwards.
func NewAuthority(log *slog.Logger, key []byte, secret string, accounts map[string]string) (*Authority, error) {
	hashed := make(map[string]string, len(accounts))
	for username, password := range accounts {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hashing account %q: %w", username, err)
		}
		hashed[username] = hash
	}
	return &Authority{
		log:      log,
		key:      key,
		secret:   secret,
		accounts: hashed,
		sessions: make(map[string]string),
	}, nil
}

// Login validates the (username, password, secret) triple and issues a
// session token. Every failure collapses into the same credentials error to
// prevent account enumeration.
func (a *Authority) Login(req LoginRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(a.secret)) != 1 {
		return "", apperrors.ErrInvalidCredentials
	}

	a.mu.RLock()
	hash, ok := a.accounts[req.Username]
	a.mu.RUnlock()
	if !ok {
		return "", apperrors.ErrInvalidCredentials
	}
	match, err := ComparePassword(req.Password, hash)
	if err != nil || !match {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := GenerateToken(req.Username, a.key)
	if err != nil {
		return "", apperrors.ErrTokenGeneration
	}

	a.mu.Lock()
	a.sessions[token] = req.Username
	a.mu.Unlock()

	a.log.Info("admin login", "username", req.Username)
	return token, nil
}

// Authorize resolves a token to its admin username. Both a valid signature
// and membership in the session set are required, so a restart invalidates
// every previously issued token. Failure must short-circuit the caller with
// no state mutation.
func (a *Authority) Authorize(token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrUnauthorized
	}
	username, err := ValidateToken(token, a.key)
	if err != nil {
		return "", apperrors.ErrUnauthorized
	}

	a.mu.RLock()
	_, live := a.sessions[token]
	a.mu.RUnlock()
	if !live {
		return "", apperrors.ErrUnauthorized
	}
	return username, nil
}

// Logout invalidates one session. Unknown tokens are a no-op.
func (a *Authority) Logout(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
}

// SessionCount reports the number of live admin sessions.
func (a *Authority) SessionCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sessions)
}
