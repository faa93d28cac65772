// Package identities is the credential store: it owns identity rows and the
// hashed secrets. Secrets are hashed on the way in and never returned.
package identities

import (
	"context"

	"github.com/dmitrijs2005/policyportal/internal/server/models"
)

// Repository is the credential store contract used by the account manager.
//
// Outcomes are reported as sentinel errors from the common package:
// ErrIdentityConflict on duplicate email, ErrInvalidCredentials from Verify,
// ErrorNotFound for unknown ids.
type Repository interface {
	Create(ctx context.Context, email, secret string, emailConfirmed bool) (*models.Identity, error)
	Verify(ctx context.Context, email, secret string) (*models.Identity, error)
	Get(ctx context.Context, id string) (*models.Identity, error)
	UpdateSecret(ctx context.Context, id, secret string) error
	// UpdateEmail sets a new email and returns the previous one.
	UpdateEmail(ctx context.Context, id, email string) (string, error)
	Delete(ctx context.Context, id string) error
}
