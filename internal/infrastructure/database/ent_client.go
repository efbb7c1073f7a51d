package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database/migrate"
)

// DB bundles the raw connection pool with the ent dialect driver built on top of it.
type DB struct {
	SQL     *sql.DB
	Dialect string
	Driver  dialect.Driver
}

// Open constructs the database handle configured for the local store.
func Open(cfg *config.Config, logger *logrus.Logger) (*DB, func(), error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database driver: %w", err)
	}

	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database dsn: %w", err)
	}

	var db *DB
	switch driver {
	case "postgres":
		db, err = openPostgres(dsn)
	case "sqlite3":
		db, err = openSQLite(dsn)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.LogSQL && logger != nil {
		db.Driver = dialect.Debug(db.Driver, logger.Debug)
	}

	return db, func() {
		_ = db.SQL.Close()
	}, nil
}

// OpenSQLite opens an sqlite database at dsn. Tests use it directly with temp files.
func OpenSQLite(dsn string) (*DB, error) {
	return openSQLite(dsn)
}

func openPostgres(dsn string) (*DB, error) {
	rawDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}

	return &DB{
		SQL:     rawDB,
		Dialect: dialect.Postgres,
		Driver:  entsql.OpenDB(dialect.Postgres, rawDB),
	}, nil
}

func openSQLite(dsn string) (*DB, error) {
	if err := ensureSQLiteDir(dsn); err != nil {
		return nil, err
	}

	rawDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	rawDB.SetMaxOpenConns(1)
	rawDB.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := rawDB.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}

	return &DB{
		SQL:     rawDB,
		Dialect: dialect.SQLite,
		Driver:  entsql.OpenDB(dialect.SQLite, rawDB),
	}, nil
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite directory: %w", err)
	}
	return nil
}

// Migrate creates or upgrades every local store table.
func (db *DB) Migrate(ctx context.Context) error {
	if err := migrate.Create(ctx, db.Driver); err != nil {
		return fmt.Errorf("migrate local store: %w", err)
	}
	return nil
}
