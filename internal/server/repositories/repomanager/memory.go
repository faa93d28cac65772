package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/policyportal/internal/dbx"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/identities"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/memory"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/profiles"
)

// MemoryRepositoryManager serves process-local stores and ignores the
// database handle. Data does not survive a restart.
type MemoryRepositoryManager struct {
	identities *memory.Identities
	profiles   *memory.Profiles
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		identities: memory.NewIdentities(),
		profiles:   memory.NewProfiles(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Identities(dbx.DBTX) identities.Repository { return m.identities }

func (m *MemoryRepositoryManager) Profiles(dbx.DBTX) profiles.Repository { return m.profiles }
