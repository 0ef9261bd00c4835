// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vat/internal/dbx"
	"github.com/dmitrijs2005/vat/internal/server/migrations"
	"github.com/dmitrijs2005/vat/internal/server/repositories/analyses"
	"github.com/dmitrijs2005/vat/internal/server/repositories/audiofiles"
	"github.com/dmitrijs2005/vat/internal/server/repositories/payments"
	"github.com/dmitrijs2005/vat/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/vat/internal/server/repositories/tariffs"
	"github.com/dmitrijs2005/vat/internal/server/repositories/transcriptions"
	"github.com/dmitrijs2005/vat/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AudioFiles(db dbx.DBTX) audiofiles.Repository {
	return audiofiles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Transcriptions(db dbx.DBTX) transcriptions.Repository {
	return transcriptions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Analyses(db dbx.DBTX) analyses.Repository {
	return analyses.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tariffs(db dbx.DBTX) tariffs.Repository {
	return tariffs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Payments(db dbx.DBTX) payments.Repository {
	return payments.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
