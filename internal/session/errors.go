package session

import "errors"

// Sentinel errors for the session package. Check with errors.Is.
var (
	// ErrNoCurrentCard means the queue position is past the end: the
	// sitting is complete (or was empty to begin with). A terminal state,
	// not a failure.
	ErrNoCurrentCard = errors.New("session: no current card")
	// ErrPersistFailed wraps a store write failure. The queue was left
	// untouched and the operation may be retried as-is.
	ErrPersistFailed = errors.New("session: persisting review failed")
)
