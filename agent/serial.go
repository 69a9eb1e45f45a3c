package agent

import (
	"context"
	"fmt"

	"github.com/projecteru2/guestops/lock"
	"github.com/projecteru2/guestops/types"
)

// compile-time interface check.
var _ Client = (*Serialized)(nil)

// Serialized wraps a Client so that at most one agent call is in flight per
// guest handle. The guest-tools channel is treated as serialized: nothing
// below this layer documents concurrent calls as safe.
type Serialized struct {
	inner  Client
	locker lock.Locker
}

// NewSerialized wraps inner with per-guest call serialization. The locker is
// typically a flock under the run dir keyed by guest ID, so serialization
// also holds across processes driving the same guest.
func NewSerialized(inner Client, locker lock.Locker) *Serialized {
	return &Serialized{inner: inner, locker: locker}
}

// Call forwards one operation while holding the guest lock.
func (s *Serialized) Call(ctx context.Context, guest *types.Guest, auth *types.Auth, op Op, args, result any) error {
	if err := s.locker.Lock(ctx); err != nil {
		return &CommunicationError{Op: op, Err: fmt.Errorf("serialize call: %w", err)}
	}
	defer s.locker.Unlock(ctx) //nolint:errcheck

	return s.inner.Call(ctx, guest, auth, op, args, result)
}
