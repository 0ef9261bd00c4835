package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vat/internal/dbx"
	"github.com/dmitrijs2005/vat/internal/server/repositories/analyses"
	"github.com/dmitrijs2005/vat/internal/server/repositories/audiofiles"
	"github.com/dmitrijs2005/vat/internal/server/repositories/payments"
	"github.com/dmitrijs2005/vat/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/vat/internal/server/repositories/tariffs"
	"github.com/dmitrijs2005/vat/internal/server/repositories/transcriptions"
	"github.com/dmitrijs2005/vat/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a db or tx handle so that
// services can compose them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	AudioFiles(db dbx.DBTX) audiofiles.Repository
	Transcriptions(db dbx.DBTX) transcriptions.Repository
	Analyses(db dbx.DBTX) analyses.Repository
	Tariffs(db dbx.DBTX) tariffs.Repository
	Payments(db dbx.DBTX) payments.Repository
}
