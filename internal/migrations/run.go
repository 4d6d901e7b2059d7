// Package migrations применяет встроенные SQL-миграции схемы для postgres и sqlite.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Run применяет все недостающие миграции для драйвера. Уже актуальная схема не считается ошибкой.
func Run(db *sql.DB, driverName string) error {
	const op = "migrations.Run"

	m, err := newMigrate(db, driverName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Version возвращает текущую версию схемы и флаг незавершённой миграции.
func Version(db *sql.DB, driverName string) (uint, bool, error) {
	const op = "migrations.Version"

	m, err := newMigrate(db, driverName)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, dirty, nil
}

func newMigrate(db *sql.DB, driverName string) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)
	switch driverName {
	case DriverPostgres:
		driver, err = pgxv5.WithInstance(db, &pgxv5.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported driver %q", driverName)
	}
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(files, driverName)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, driverName, driver)
}
