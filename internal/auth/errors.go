package auth

import "errors"

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrUsernameTaken      = errors.New("auth: username already exists")
	ErrEmailTaken         = errors.New("auth: email already exists")
	ErrInvalidCredentials = errors.New("auth: incorrect username or password")

	ErrMalformedToken   = errors.New("auth: malformed token")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrMissingSubject   = errors.New("auth: token subject missing")
	ErrTokenExpired     = errors.New("auth: token expired")
)

// ValidationError reports rejected registration input. Msg is safe to echo
// back to the client verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTokenError reports whether err belongs to the token verification taxonomy.
// The HTTP boundary collapses all of these into one generic 401; callers must
// not leak which specific check failed.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMissingSubject) ||
		errors.Is(err, ErrTokenExpired)
}
