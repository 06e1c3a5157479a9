package port

import (
	"context"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

// AuthBackend is the remote authentication capability bound to one console.
type AuthBackend interface {
	// GetSession returns the stored session, refreshing it when the access token is about to
	// expire. A nil session without error means nobody is signed in.
	GetSession(ctx context.Context) (*domain.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers fn for session change notifications and returns its disposer.
	OnAuthStateChange(fn domain.AuthChangeFunc) (unsubscribe func())
}
