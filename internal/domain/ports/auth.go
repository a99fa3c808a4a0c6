package ports

import (
	"context"

	"github.com/happyhours/orderhub/internal/domain"
)

// Authenticator validates a credential and resolves the principal behind it.
type Authenticator interface {
	// Authenticate validates the credential and returns the principal it
	// identifies. A failure means the connection or request is refused.
	Authenticate(ctx context.Context, credential string) (domain.Principal, error)
}
