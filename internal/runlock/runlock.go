// Package runlock serializes reconciliation runs, in process or across
// replicas.
package runlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
)

// ErrHeld is returned by Acquire when another holder owns the lock.
var ErrHeld = fmt.Errorf("run lock held: %w", sentinel.ErrConflict)

// Lease is a held lock.
type Lease interface {
	// Release gives the lock up. Releasing an expired or stolen lease is a no-op.
	Release(ctx context.Context) error
}

// Locker hands out exclusive leases on a key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
