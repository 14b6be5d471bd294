package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ UserStore = (*PGStore)(nil)

// PGStore implements UserStore on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, username, email, password_hash, enabled,
	account_non_expired, account_non_locked, credentials_non_expired, created_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	var email any
	if u.Email != "" {
		email = u.Email
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, email, password_hash, enabled,
			account_non_expired, account_non_locked, credentials_non_expired, created_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Username, email, u.PasswordHash, u.Enabled,
		u.AccountNonExpired, u.AccountNonLocked, u.CredentialsNonExpired, u.CreatedAt,
	)
	return mapUniqueViolation(err)
}

func (s *PGStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=$1`, username)
	return scanUser(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u     User
		email sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Enabled,
		&u.AccountNonExpired, &u.AccountNonLocked, &u.CredentialsNonExpired, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Email = email.String
	return &u, nil
}

// mapUniqueViolation translates a 23505 from the users unique indexes into
// the store-level conflict errors.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return ErrEmailTaken
		}
		return ErrUsernameTaken
	}
	return err
}
