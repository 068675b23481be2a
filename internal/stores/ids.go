package stores

import "github.com/oklog/ulid/v2"

// newCardID mints an opaque, lexically sortable card identifier.
func newCardID() string {
	return ulid.Make().String()
}
