package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/juho05/log"

	pawid "github.com/juho05/paw-id"
	"github.com/juho05/paw-id/config"
	"github.com/juho05/paw-id/repos"
)

type DB struct {
	db *sqlx.DB
}

func autoMigrate(db *sql.DB) error {
	migrations := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(pawid.SQLiteMigrationsFS),
	}
	log.Trace("Migrating database...")
	n, err := migrate.Exec(db, "sqlite3", migrations, migrate.Up)
	log.Tracef("Applied %d migrations!", n)
	if err != nil {
		return err
	}
	return nil
}

func Connect(connectionString string) (repos.DB, error) {
	rawDB, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	_, err = rawDB.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	_, err = rawDB.Exec("PRAGMA foreign_keys = 1")
	if err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	_, err = rawDB.Exec("PRAGMA busy_timeout = 3000")
	if err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if config.AutoMigrate() {
		err = autoMigrate(rawDB)
		if err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return &DB{
		db: sqlx.NewDb(rawDB, "sqlite"),
	}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func repoErrResult(format string, result sql.Result, err error) error {
	if err == nil {
		if rows, err := result.RowsAffected(); err == nil && rows == 0 {
			return fmt.Errorf(format, repos.ErrNoRecord)
		}
		return nil
	}
	return repoErr(format, err)
}

func repoErr(format string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		err = repos.ErrNoRecord
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		err = repos.ErrExists
	}
	return fmt.Errorf(format, err)
}
