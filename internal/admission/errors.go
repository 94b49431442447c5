package admission

import "errors"

var (
	// ErrUnauthenticated means the request carried no token, a malformed
	// token, or a token that matched no enabled member.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the member is valid but lacks the privilege the
	// route requires.
	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable means the shared rate counter store could not be
	// reached or answered with an error.
	ErrStoreUnavailable = errors.New("rate store unavailable")
)
