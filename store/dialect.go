package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// dialect captures what differs between the supported SQL backends: bind
// variables, row locking, DDL and how driver errors are classified.
type dialect struct {
	name       string
	dollarBind bool
	forUpdate  string
	schema     string
	// isolation reports whether BeginTx may be given an explicit level.
	isolation bool

	isUnique   func(error) bool
	isConflict func(error) bool
}

var postgresDialect = dialect{
	name:       "postgres",
	dollarBind: true,
	forUpdate:  " FOR UPDATE",
	schema:     postgresSchema,
	isolation:  true,
	isUnique: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	},
	isConflict: func(err error) bool {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			return false
		}
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	},
}

var mysqlDialect = dialect{
	name:      "mysql",
	forUpdate: " FOR UPDATE",
	schema:    mysqlSchema,
	isolation: true,
	isUnique: func(err error) bool {
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	},
	isConflict: func(err error) bool {
		var myErr *mysql.MySQLError
		if !errors.As(err, &myErr) {
			return false
		}
		// 1213 deadlock, 1205 lock wait timeout
		return myErr.Number == 1213 || myErr.Number == 1205
	},
}

// SQLite has no row locks; transactions begin IMMEDIATE instead (see
// sqliteDSN) which serialises writers on the database lock.
var sqliteDialect = dialect{
	name:   "sqlite3",
	schema: sqliteSchema,
	isUnique: func(err error) bool {
		var liteErr sqlite3.Error
		if !errors.As(err, &liteErr) {
			return false
		}
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	},
	isConflict: func(err error) bool {
		var liteErr sqlite3.Error
		if !errors.As(err, &liteErr) {
			return false
		}
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	},
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect, nil
	case "mysql":
		return mysqlDialect, nil
	case "sqlite3":
		return sqliteDialect, nil
	}
	return dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

// rebind rewrites ? placeholders into the dialect's bind syntax.
func (d dialect) rebind(query string) string {
	if !d.dollarBind {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// wrap converts a driver error into ErrConflict when the transaction lost
// a race, leaving every other error untouched.
func (d dialect) wrap(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if d.isConflict(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
