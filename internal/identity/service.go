// Package identity implements signup, signin and signout.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/identity/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

// CredentialStore persists identities. Create must fail with a unique
// violation when a case-equivalent email exists; GetByEmail returns
// sql.ErrNoRows when nothing matches.
type CredentialStore interface {
	Create(ctx context.Context, i *entity.Identity) error
	GetByEmail(ctx context.Context, email string) (*entity.Identity, error)
}

// TokenIssuer mints bearer tokens.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

// Session is the result of a successful signup or signin.
type Session struct {
	Identity entity.PublicView
	Token    string
}

// SignoutAck tells the client to drop its token. Nothing is revoked server side.
type SignoutAck struct {
	Message    string `json:"message"`
	ClearToken bool   `json:"clearToken"`
}

// Service orchestrates the hasher, token issuer and credential store. It
// holds no state of its own.
type Service struct {
	store  CredentialStore
	hasher PasswordHasher
	tokens TokenIssuer
	newID  func() string
	now    func() time.Time
}

func NewService(store CredentialStore, hasher PasswordHasher, tokens TokenIssuer) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		newID:  utilities.NewKSUID,
		now:    time.Now,
	}
}

// Signup registers a new identity and returns it with a fresh token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	var errs []error
	if name == "" {
		errs = append(errs, apperr.Validation("name", "name is required"))
	}
	if email == "" {
		errs = append(errs, apperr.Validation("email", "email is required"))
	}
	if password == "" {
		errs = append(errs, apperr.Validation("password", "password is required"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Validation("password", "password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := &entity.Identity{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, id); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, apperr.DuplicateIdentity(email)
		case database.IsUnavailable(err):
			return nil, apperr.StorageUnavailable("create identity", err)
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return s.session(id)
}

// Signin checks the password of the identity registered under email.
func (s *Service) Signin(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.NotFound("identity", email)
	}
	id, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		switch {
		case database.IsNotFound(err):
			return nil, apperr.NotFound("identity", email)
		case database.IsUnavailable(err):
			return nil, apperr.StorageUnavailable("get identity", err)
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if !s.hasher.Verify(id.PasswordHash, password) {
		return nil, apperr.InvalidCredentials()
	}
	return s.session(id)
}

// Signout acknowledges a logout. Tokens stay valid until they expire.
func (s *Service) Signout() SignoutAck {
	return SignoutAck{Message: "Successfully signed out", ClearToken: true}
}

func (s *Service) session(id *entity.Identity) (*Session, error) {
	tok, err := s.tokens.Issue(auth.Principal{Subject: id.ID, Email: id.Email, Name: id.Name})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Identity: id.Public(), Token: tok}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
