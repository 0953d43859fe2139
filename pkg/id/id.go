package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generate returns a prefixed, lexicographically sortable unique id,
// e.g. "conn_01J8ZQ4T9V...".
func Generate(prefix string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	return prefix + "_" + id.String()
}
