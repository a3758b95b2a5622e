package auth

import "errors"

// ErrSessionExpired is returned when the profile fetch fails for any reason.
// A failed profile fetch is the only way an invalid or expired token gets
// detected, and it always purges the session.
var ErrSessionExpired = errors.New("session is invalid or expired, please log in again")
