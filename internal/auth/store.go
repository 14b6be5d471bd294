package auth

import "context"

// UserStore describes persistence operations required by the auth service.
//
// Create must surface ErrUsernameTaken / ErrEmailTaken when the underlying
// unique index rejects the row: the service performs a check-then-insert that
// is inherently racy, and the index is the correctness backstop for
// concurrent registrations.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
