package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/juho05/log"

	pawid "github.com/juho05/paw-id"
	"github.com/juho05/paw-id/config"
	"github.com/juho05/paw-id/repos"
)

type DB struct {
	db *pgxpool.Pool
}

func ConstructDSN(dbName, host string, port int, user, password string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", user, password, host, port, dbName)
}

func autoMigrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	defer db.Close()
	migrations := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(pawid.PostgresMigrationsFS),
	}
	log.Trace("Migrating database...")
	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	log.Tracef("Applied %d migrations!", n)
	if err != nil {
		return err
	}
	return nil
}

func Connect(dsn string) (repos.DB, error) {
	log.Tracef("Connecting to Postgres database...")
	conn, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect DB: %w", err)
	}
	if config.AutoMigrate() {
		err = autoMigrate(dsn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return &DB{
		db: conn,
	}, nil
}

func (d *DB) Close() error {
	d.db.Close()
	return nil
}

func repoErrResult(format string, result pgconn.CommandTag, err error) error {
	if err == nil {
		if rows := result.RowsAffected(); rows == 0 {
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
	if errors.Is(err, pgx.ErrNoRows) {
		err = repos.ErrNoRecord
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation || strings.Contains(pgErr.ConstraintName, "pkey") {
			err = repos.ErrExists
		}
	}
	return fmt.Errorf(format, err)
}
