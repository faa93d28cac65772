// Package profiles is the profile store: one application-side record per
// identity, keyed by the identity id.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/policyportal/internal/server/models"
)

type Repository interface {
	// Create inserts p. A missing policy number is generated and a missing
	// status defaults to Active.
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	UpdateEmail(ctx context.Context, id, email string) error
	Update(ctx context.Context, id string, u models.ProfileUpdate) (*models.Profile, error)
}
