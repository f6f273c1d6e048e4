package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/clientintake/internal/dbx"
	"github.com/dmitrijs2005/clientintake/internal/server/repositories/drafts"
	"github.com/dmitrijs2005/clientintake/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/clientintake/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so that services can
// run several repository calls inside one transaction by passing the same
// *sql.Tx to each accessor.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Drafts(db dbx.DBTX) drafts.Repository
	Submissions(db dbx.DBTX) submissions.Repository
}
