// Package ids generates primary keys for stored records.
package ids

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a lowercase ULID. IDs generated in the same process sort in
// creation order, which the list queries use as a tiebreaker.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a lowercase ULID stamped with t.
func NewAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}
