// Package registry persists the set of known guests: which VM answers on
// which guest-channel socket, and what OS family it runs. It is host-side
// bookkeeping only — no per-process state is ever stored here, the PID
// returned by an exec is the caller's sole durable reference.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/projecteru2/guestops/config"
	storagejson "github.com/projecteru2/guestops/storage/json"
	"github.com/projecteru2/guestops/types"
	"github.com/projecteru2/guestops/utils"
)

// ErrNotFound is returned when a guest reference does not resolve.
var ErrNotFound = fmt.Errorf("guest not found")

// Index is the top-level structure of the guest index file.
type Index struct {
	Guests map[string]*types.Guest `json:"guests"`
	Names  map[string]string       `json:"names"` // name → guest ID
}

// Init implements storage.Initer — initialises nil maps after deserialization.
func (idx *Index) Init() {
	if idx.Guests == nil {
		idx.Guests = make(map[string]*types.Guest)
	}
	if idx.Names == nil {
		idx.Names = make(map[string]string)
	}
}

// Registry provides flock-protected access to the guest index.
type Registry struct {
	store *storagejson.Store[Index]
}

// New creates the Registry, ensuring the index directory exists.
func New(conf *config.Config) (*Registry, error) {
	if err := utils.EnsureDirs(filepath.Dir(conf.IndexPath())); err != nil {
		return nil, err
	}
	return &Registry{
		store: storagejson.New[Index](conf.IndexLockPath(), conf.IndexPath()),
	}, nil
}

// Register adds a guest to the index and returns its handle.
func (r *Registry) Register(ctx context.Context, name, socketPath string, family types.OSFamily) (*types.Guest, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("unknown OS family %q", family)
	}
	now := time.Now()
	guest := &types.Guest{
		ID:         GenerateID(),
		Name:       name,
		SocketPath: socketPath,
		OSFamily:   family,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := r.store.Update(ctx, func(idx *Index) error {
		if name != "" {
			if _, ok := idx.Names[name]; ok {
				return fmt.Errorf("guest name %q already registered", name)
			}
			idx.Names[name] = guest.ID
		}
		idx.Guests[guest.ID] = guest
		return nil
	})
	if err != nil {
		return nil, err
	}
	return guest, nil
}

// Resolve maps a user-supplied reference (exact ID, name, or ID prefix) to
// a guest handle.
func (r *Registry) Resolve(ctx context.Context, ref string) (*types.Guest, error) {
	var guest *types.Guest
	err := r.store.With(ctx, func(idx *Index) error {
		id, err := resolveRef(idx, ref)
		if err != nil {
			return err
		}
		g, err := utils.LookupCopy(idx.Guests, id)
		if err != nil {
			return err
		}
		guest = &g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return guest, nil
}

// List returns all registered guests.
func (r *Registry) List(ctx context.Context) ([]*types.Guest, error) {
	var out []*types.Guest
	err := r.store.With(ctx, func(idx *Index) error {
		for _, g := range idx.Guests {
			copied := *g
			out = append(out, &copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes guests from the index. Best-effort over refs: entries that
// resolve are removed and persisted even when other refs fail, and the
// failures come back joined.
func (r *Registry) Remove(ctx context.Context, refs []string) ([]string, error) {
	var removed []string
	var failures []error
	err := r.store.Update(ctx, func(idx *Index) error {
		for _, ref := range refs {
			id, err := resolveRef(idx, ref)
			if err != nil {
				failures = append(failures, fmt.Errorf("remove %q: %w", ref, err))
				continue
			}
			if name := idx.Guests[id].Name; name != "" {
				delete(idx.Names, name)
			}
			delete(idx.Guests, id)
			removed = append(removed, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, errors.Join(failures...)
}

// GenerateID returns a random 16-character hex string (8 bytes of entropy).
func GenerateID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// resolveRef resolves ref against the index.
// Resolution order: exact ID → name → ID prefix (≥3 chars).
func resolveRef(idx *Index, ref string) (string, error) {
	// 1. Exact ID match.
	if idx.Guests[ref] != nil {
		return ref, nil
	}
	// 2. Name index match.
	if id, ok := idx.Names[ref]; ok && idx.Guests[id] != nil {
		return id, nil
	}
	// 3. ID prefix match (require ≥3 chars to avoid overly broad matches).
	if len(ref) >= 3 {
		var match string
		for id := range idx.Guests {
			if strings.HasPrefix(id, ref) {
				if match != "" {
					return "", fmt.Errorf("ambiguous ref %q: multiple matches", ref)
				}
				match = id
			}
		}
		if match != "" {
			return match, nil
		}
	}
	return "", ErrNotFound
}
