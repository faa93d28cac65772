// Package repomanager vends the credential and profile stores bound to a
// database handle and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/policyportal/internal/dbx"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/identities"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/profiles"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Identities(db dbx.DBTX) identities.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}
