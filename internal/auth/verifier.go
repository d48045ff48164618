package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingCredentials = errors.New("username or password missing")
	ErrWrongCredentials   = errors.New("wrong credentials")
)

// dummyPasswordHash is checked against when the username lookup misses, so
// that a miss burns roughly the same cycles as a real password mismatch.
// The comparison result is always discarded.
const dummyPasswordHash = "$2a$12$z8cd4yJpzP40Qh2F2BhiMO.sOm4YAIaf30pmUKLOaISojD9HnXgaG"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type credentialsRepo interface {
	FindByUsername(ctx context.Context, username string) (*Credential, error)
}

// Verifier turns a login request into an accepted identity or a rejection.
// A lookup miss, an inactive account and a password mismatch are
// deliberately indistinguishable to the caller: all three come back as
// ErrWrongCredentials. It never mutates anything, session handling is the
// caller's business.
type Verifier struct {
	repo credentialsRepo
}

func NewVerifier(repo credentialsRepo) *Verifier {
	return &Verifier{
		repo: repo,
	}
}

func (v *Verifier) Verify(ctx context.Context, req LoginRequest) (*AuthenticatedUser, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.Password) == "" {
		return nil, ErrMissingCredentials
	}

	cred, err := v.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrCredentialNotFound):
		CheckPasswordHash(req.Password, dummyPasswordHash)
		return nil, ErrWrongCredentials
	case err != nil:
		return nil, fmt.Errorf("find credential: %w", err)
	}

	// the active flag is checked after the hash so that inactive accounts
	// cost the same as live ones
	if !CheckPasswordHash(req.Password, cred.PasswordHash) || !cred.IsActive {
		return nil, ErrWrongCredentials
	}

	user := cred.User()
	return &user, nil
}
