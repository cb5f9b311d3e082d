package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"marketplace/logger"

	"github.com/go-sql-driver/mysql"
)

// Options tune how the SQL store opens units of work.
type Options struct {
	// Isolation is the level requested for every transaction. The default
	// (read committed) relies on the row locks taken by the Lock* methods;
	// sql.LevelSerializable relies on conflict detection plus retry.
	Isolation    sql.IsolationLevel
	MaxRetries   int
	RetryBackoff time.Duration
	MaxOpenConns int
}

// SQLStore is a Store backed by database/sql. Postgres, MySQL and SQLite
// are supported through dialects.
type SQLStore struct {
	DB *sql.DB

	dialect dialect
	opts    Options
}

// Open connects to the database, pings it and runs the schema migration.
func Open(driver, dsn string, opts Options) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	switch d.name {
	case "sqlite3":
		dsn = sqliteDSN(dsn)
	case "mysql":
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns / 2)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := NewSQLStore(db, driver, opts)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an already opened handle. Unknown drivers fall back to
// the Postgres dialect.
func NewSQLStore(db *sql.DB, driver string, opts Options) *SQLStore {
	d, err := dialectFor(driver)
	if err != nil {
		d = postgresDialect
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 10 * time.Millisecond
	}
	return &SQLStore{DB: db, dialect: d, opts: opts}
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
}

// mysqlDSN makes the driver scan DATETIME/TIMESTAMP columns into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func (s *SQLStore) Close() error { return s.DB.Close() }

// Driver reports the dialect name.
func (s *SQLStore) Driver() string { return s.dialect.name }

// Rebind rewrites ? placeholders for the store's dialect.
func (s *SQLStore) Rebind(query string) string { return s.dialect.rebind(query) }

// InTx runs fn as one transaction, re-running it from scratch when the
// transaction loses a race with a concurrent one.
func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var err error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying transaction", map[string]interface{}{
				"attempt": attempt,
				"cause":   err.Error(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.opts.RetryBackoff):
			}
		}
		err = s.runTx(ctx, fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}

func (s *SQLStore) runTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var txOpts *sql.TxOptions
	if s.dialect.isolation && s.opts.Isolation != sql.LevelDefault {
		txOpts = &sql.TxOptions{Isolation: s.opts.Isolation}
	}
	tx, err := s.DB.BeginTx(ctx, txOpts)
	if err != nil {
		return s.dialect.wrap(err)
	}
	// ensure rollback on early return
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &sqlTx{tx: tx, d: s.dialect}); err != nil {
		return err
	}
	done = true
	if err := tx.Commit(); err != nil {
		return s.dialect.wrap(err)
	}
	return nil
}
