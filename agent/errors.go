package agent

import (
	"errors"
	"fmt"
)

// Sentinel filesystem-state faults reported by the guest agent. They are
// surfaced as-is; no layer above retries them automatically.
var (
	ErrPathNotFound      = errors.New("guest path not found")
	ErrAlreadyExists     = errors.New("guest path already exists")
	ErrDirectoryNotEmpty = errors.New("guest directory not empty")
	ErrPermissionDenied  = errors.New("guest permission denied")
)

// CommunicationError means the guest-tools channel is unreachable or the
// agent rejected the request outright (e.g. invalid working directory).
// Never retried by this layer.
type CommunicationError struct {
	Op  Op
	Err error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("guest agent call %s: %v", e.Op, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// AuthenticationError means the guest session credentials are stale or
// invalid. Surfaced immediately; re-authentication is the caller's job.
type AuthenticationError struct {
	Username string
}

func (e *AuthenticationError) Error() string {
	if e.Username == "" {
		return "guest authentication failed"
	}
	return fmt.Sprintf("guest authentication failed for %q", e.Username)
}

// fault codes carried in the agent error envelope.
const (
	faultNotFound     = "not_found"
	faultExists       = "already_exists"
	faultNotEmpty     = "not_empty"
	faultPermission   = "permission_denied"
	faultInvalidLogin = "invalid_login"
)

// faultError maps an envelope fault code to a typed error.
func faultError(op Op, code, message, username string) error {
	switch code {
	case faultNotFound:
		return ErrPathNotFound
	case faultExists:
		return ErrAlreadyExists
	case faultNotEmpty:
		return ErrDirectoryNotEmpty
	case faultPermission:
		return ErrPermissionDenied
	case faultInvalidLogin:
		return &AuthenticationError{Username: username}
	default:
		return &CommunicationError{Op: op, Err: fmt.Errorf("agent fault %s: %s", code, message)}
	}
}
