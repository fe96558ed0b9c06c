// Package datastore is the single gateway to the relational database. Each
// operation connects, runs exactly one statement inside an explicit
// transaction, commits or rolls back, and disconnects before returning.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/dbx"
	"github.com/dmitrijs2005/omniguard/internal/logging"
)

// Opener opens a database handle. sql.Open is used unless overridden.
type Opener func(driver, dsn string) (*sql.DB, error)

// FatalHandler is invoked when the database cannot be reached. The default
// logs and terminates the process with status 1.
type FatalHandler func(err error)

// Option customizes a Store.
type Option func(*Store)

// WithOpener replaces sql.Open, mostly for tests.
func WithOpener(o Opener) Option {
	return func(s *Store) { s.open = o }
}

// WithFatalHandler replaces the exit-on-connect-failure handler.
func WithFatalHandler(h FatalHandler) Option {
	return func(s *Store) { s.fatal = h }
}

// Store owns at most one open handle at a time. Operations are serialized.
type Store struct {
	dialect Dialect
	dsn     string
	logger  logging.Logger
	open    Opener
	fatal   FatalHandler

	mu sync.Mutex
	db *sql.DB
}

// New returns a disconnected Store for dsn. Nothing is opened until the
// first operation.
func New(d Dialect, dsn string, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		dialect: d,
		dsn:     dsn,
		logger:  logger.With("module", "datastore"),
		open:    sql.Open,
	}
	s.fatal = func(err error) {
		s.logger.Error(context.Background(), "database unreachable, exiting", "error", err)
		os.Exit(1)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Connect opens and pings the handle. Failure is fatal: the fatal handler
// runs first, and if it returns, an error wrapping common.ErrConnect is
// returned.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connect(ctx)
}

func (s *Store) connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := s.open(s.dialect.Driver, s.dsn)
	if err == nil {
		if err = db.PingContext(ctx); err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", common.ErrConnect, err)
		s.fatal(err)
		return err
	}

	s.db = db
	return nil
}

// Disconnect closes the handle if one is open. Calling it again is a no-op.
func (s *Store) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnect()
}

func (s *Store) disconnect() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Connected reports whether a handle is currently open.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// run executes fn in one transaction on a fresh connection and always
// disconnects afterwards.
func (s *Store) run(ctx context.Context, op string, t Table, query string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.disconnect(); err != nil {
			s.logger.Warn(ctx, "disconnect failed", "error", err)
		}
	}()

	s.logger.Debug(ctx, "executing statement", "op", op, "table", t, "query", query)

	if err := dbx.WithTx(ctx, s.db, dbx.Isolation(s.dialect.Isolation), fn); err != nil {
		s.logger.Error(ctx, "statement rolled back", "op", op, "table", t, "error", err)
		return newStorageError(op, t, err)
	}
	return nil
}

// Create inserts one row built from fields, in order.
func (s *Store) Create(ctx context.Context, t Table, fields []Field) error {
	query, args, err := buildInsert(s.dialect, t, fields)
	if err != nil {
		return err
	}

	return s.run(ctx, "create", t, query, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

// Read returns every row matching all conditions. With no columns every
// column is selected. No match yields an empty, non-nil slice.
func (s *Store) Read(ctx context.Context, t Table, conds []Field, cols ...Column) ([]Row, error) {
	query, args, err := buildSelect(s.dialect, t, conds, cols)
	if err != nil {
		return nil, err
	}

	result := []Row{}
	err = s.run(ctx, "read", t, query, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		names, err := rows.Columns()
		if err != nil {
			return err
		}

		for rows.Next() {
			values := make([]any, len(names))
			ptrs := make([]any, len(names))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}

			row := make(Row, len(names))
			for i, name := range names {
				if b, ok := values[i].([]byte); ok {
					row[name] = string(b)
					continue
				}
				row[name] = values[i]
			}
			result = append(result, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "read rows", "table", t, "count", len(result))
	return result, nil
}

// Update sets fields on every row matching conds and returns the number of
// affected rows. Empty conds are rejected.
func (s *Store) Update(ctx context.Context, t Table, fields, conds []Field) (int64, error) {
	query, args, err := buildUpdate(s.dialect, t, fields, conds)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "update", t, query, args)
}

// Delete removes every row matching conds and returns the number of affected
// rows. Empty conds are rejected.
func (s *Store) Delete(ctx context.Context, t Table, conds []Field) (int64, error) {
	query, args, err := buildDelete(s.dialect, t, conds)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "delete", t, query, args)
}

func (s *Store) exec(ctx context.Context, op string, t Table, query string, args []any) (int64, error) {
	var affected int64
	err := s.run(ctx, op, t, query, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug(ctx, "rows affected", "op", op, "table", t, "count", affected)
	return affected, nil
}

// WithDB hands fn a connected handle for work that manages its own
// transactions, such as schema migrations. The handle is closed afterwards.
func (s *Store) WithDB(ctx context.Context, fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.disconnect(); err != nil {
			s.logger.Warn(ctx, "disconnect failed", "error", err)
		}
	}()

	return fn(s.db)
}
