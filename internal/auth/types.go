package auth

import "time"

// User is an identity record. Username is unique, case-sensitive and
// immutable; Email is optional and, when present, also unique. The four
// status flags follow the original schema and are all consulted at login.
type User struct {
	ID                    string
	Username              string
	Email                 string
	PasswordHash          string
	Enabled               bool
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
	CreatedAt             time.Time
}

// Active reports whether the account may authenticate.
func (u *User) Active() bool {
	return u.Enabled && u.AccountNonExpired && u.AccountNonLocked && u.CredentialsNonExpired
}

// Registration carries a registration attempt before validation.
type Registration struct {
	Username       string
	Email          string
	Password       string
	PasswordSubmit string
}
