package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/transcripts"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// constructors serve both plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Transcripts(db dbx.DBTX) transcripts.Repository
}
