package srs

import "errors"

// Sentinel errors for the srs package. Check with errors.Is.
var (
	ErrInvalidRating  = errors.New("srs: invalid rating")
	ErrInvalidOptions = errors.New("srs: invalid scheduler options")
)
