package datastore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect captures the differences between the supported SQL backends.
type Dialect struct {
	// Name is the configuration name, also used as goose dialect hint.
	Name string
	// Driver is the database/sql driver name.
	Driver string
	// Isolation is the level every transaction is started with.
	Isolation sql.IsolationLevel

	placeholder func(n int) string
}

var (
	// Postgres runs statements under READ COMMITTED through the pgx stdlib driver.
	Postgres = Dialect{
		Name:        "postgres",
		Driver:      "pgx",
		Isolation:   sql.LevelReadCommitted,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}

	// SQLite keeps the driver default level; the modernc driver refuses
	// explicit isolation levels.
	SQLite = Dialect{
		Name:        "sqlite",
		Driver:      "sqlite",
		Isolation:   sql.LevelDefault,
		placeholder: func(int) string { return "?" },
	}
)

// DialectByName resolves a configured driver name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
}
