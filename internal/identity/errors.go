// internal/identity/errors.go
package identity

import "errors"

var (
	ErrEmailInUse      = errors.New("auth/email-already-in-use")
	ErrInvalidEmail    = errors.New("auth/invalid-email")
	ErrWeakPassword    = errors.New("auth/weak-password")
	ErrMissingPassword = errors.New("auth/missing-password")
	ErrUserNotFound    = errors.New("auth/user-not-found")
	ErrWrongPassword   = errors.New("auth/wrong-password")
	ErrRateLimited     = errors.New("auth/too-many-requests")
	ErrInvalidToken    = errors.New("auth/invalid-token")
)

var errorMessages = []struct {
	err error
	msg string
}{
	{ErrEmailInUse, "This email is already registered!"},
	{ErrInvalidEmail, "Email is invalid!"},
	{ErrWeakPassword, "Password must be at least 6 characters!"},
	{ErrMissingPassword, "Password is required!"},
	{ErrUserNotFound, "User not found!"},
	{ErrWrongPassword, "Wrong password. Try again!"},
	{ErrRateLimited, "Too many attempts. Try again later!"},
	{ErrInvalidToken, "Session expired. Please sign in again!"},
}

// Message maps a provider error to its fixed human-readable form. Unmapped
// errors fall back to a generic message.
func Message(err error) string {
	for _, e := range errorMessages {
		if errors.Is(err, e.err) {
			return e.msg
		}
	}
	return "Something went wrong. Please try again!"
}
