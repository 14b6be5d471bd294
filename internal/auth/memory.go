package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ UserStore = (*MemoryStore)(nil)

// MemoryStore is an in-process UserStore used when no database DSN is
// configured and throughout the handler tests. The mutex plays the role of
// the unique index: concurrent registrations with the same username are
// serialized and exactly one wins.
type MemoryStore struct {
	mu      sync.Mutex
	byName  map[string]*User
	byEmail map[string]*User
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName:  make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[u.Username]; ok {
		return ErrUsernameTaken
	}
	if u.Email != "" {
		if _, ok := s.byEmail[u.Email]; ok {
			return ErrEmailTaken
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	s.byName[u.Username] = &cp
	if u.Email != "" {
		s.byEmail[u.Email] = &cp
	}
	return nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}
