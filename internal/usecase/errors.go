package usecase

import (
	"context"
	"errors"

	uuid "github.com/google/uuid"
)

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrRemote matches every PublicError.
	ErrRemote = errors.New("remote operation failed")
)

// ValidationError is a local input rejection whose message is shown verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// PublicError is a remote failure already redacted for display. Err keeps the raw cause for logs.
type PublicError struct {
	Message string
	Err     error
}

func (e *PublicError) Error() string { return e.Message }

func (e *PublicError) Unwrap() error { return e.Err }

func (e *PublicError) Is(target error) bool { return target == ErrRemote }

type clientIPKey struct{}

// WithClientIP records the caller's address for audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the address stored by WithClientIP or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// IsValidUUID reports whether s is a canonical 36 character UUID.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
