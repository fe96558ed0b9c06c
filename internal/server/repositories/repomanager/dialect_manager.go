package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/datastore"
	"github.com/dmitrijs2005/omniguard/internal/server/migrations"
	"github.com/dmitrijs2005/omniguard/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// DialectManager vends datastore-backed repositories and migrates the schema
// from the directory of embedded migrations matching its dialect.
type DialectManager struct {
	dialect datastore.Dialect
	logger  logging.Logger
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Users returns a users.Repository bound to the provided store.
func (m *DialectManager) Users(store users.Store) users.Repository {
	return users.NewStoreRepository(store, m.logger)
}

// RunMigrations applies every pending migration for the manager's dialect.
func (m *DialectManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseDialect, dir, err := gooseTarget(m.dialect)
	if err != nil {
		return err
	}

	goose.SetLogger(gooseLogger{ctx: ctx, logger: m.logger.With("component", "goose")})
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return err
	}

	m.logger.Info(ctx, "migrations applied", "dialect", m.dialect.Name)
	return nil
}

// Migrate runs the migrations over a connection borrowed from store.
func (m *DialectManager) Migrate(ctx context.Context, store *datastore.Store) error {
	return store.WithDB(ctx, func(db *sql.DB) error {
		return m.RunMigrations(ctx, db)
	})
}

func gooseTarget(d datastore.Dialect) (dialect, dir string, err error) {
	switch d.Name {
	case datastore.Postgres.Name:
		return "pgx", "postgres", nil
	case datastore.SQLite.Name:
		return "sqlite3", "sqlite", nil
	}
	return "", "", fmt.Errorf("no migrations for dialect %q", d.Name)
}

// NewDialectManager constructs a RepositoryManager for the given dialect.
func NewDialectManager(d datastore.Dialect, logger logging.Logger) *DialectManager {
	return &DialectManager{dialect: d, logger: logger.With("module", "repomanager")}
}
