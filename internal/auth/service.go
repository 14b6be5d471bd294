package auth

import (
	"context"
	"errors"
	"strings"
)

// Service orchestrates registration, credential checks and token issuance.
// It holds no mutable state beyond the store handle, so a single instance
// serves all requests.
type Service struct {
	store    UserStore
	signer   *Signer
	verifier *Verifier
}

// NewService wires the credential store with the token engine.
func NewService(store UserStore, signer *Signer, verifier *Verifier) *Service {
	return &Service{store: store, signer: signer, verifier: verifier}
}

// Register validates and persists a new user. Validation failures come back
// as *ValidationError; uniqueness conflicts as ErrUsernameTaken/ErrEmailTaken
// (from the pre-check or from the unique index, whichever fires first).
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	if reg.Username == "" || reg.Password == "" {
		return nil, &ValidationError{Msg: "Username and password required"}
	}
	if reg.Password != reg.PasswordSubmit {
		return nil, &ValidationError{Msg: "Passwords do not match"}
	}
	if _, err := s.store.FindByUsername(ctx, reg.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if reg.Email != "" {
		if _, err := s.store.FindByEmail(ctx, reg.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:              reg.Username,
		Email:                 reg.Email,
		PasswordHash:          hash,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username/password pair. Unknown user, wrong password
// and inactive account all fail with the same ErrInvalidCredentials so the
// response cannot be used for username enumeration; the unknown-user path
// still runs a bcrypt comparison to keep timing comparable.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = VerifyPassword(string(dummyHash), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken mints an access token whose subject is the username.
func (s *Service) IssueToken(user *User) (string, error) {
	return s.signer.Sign(&Claims{Subject: user.Username})
}

// CurrentSubject validates a bearer token and returns the authenticated
// username.
func (s *Service) CurrentSubject(token string) (string, error) {
	return s.verifier.Subject(strings.TrimSpace(token))
}

// Verifier exposes the token verifier for middleware use.
func (s *Service) Verifier() *Verifier {
	return s.verifier
}
