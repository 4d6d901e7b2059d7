// Package storage реализует хранилище абонентов, тарифов и подписок поверх
// database/sql (через sqlx). Поддерживаются postgres (драйвер pgx) и sqlite
// (modernc, без cgo). Каждая операция сервиса выполняется в WithinTx.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/magabrotheeeer/isp-manager/internal/migrations"
	"github.com/magabrotheeeer/isp-manager/internal/models"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Storage инкапсулирует пул соединений с базой.
type Storage struct {
	DB     *sqlx.DB
	driver string
}

// New открывает базу и проверяет соединение.
// Для sqlite включаются внешние ключи и используется одно соединение:
// запись в файл допускает только одного писателя.
func New(ctx context.Context, driver, dsn string) (*Storage, error) {
	const op = "storage.New"

	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case migrations.DriverPostgres:
		db, err = sqlx.Open("pgx", dsn)
	case migrations.DriverSQLite:
		db, err = sqlx.Open("sqlite", sqliteDSN(dsn))
		if err == nil {
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db, driver: driver}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Driver возвращает имя драйвера хранилища.
func (s *Storage) Driver() string {
	return s.driver
}

// Migrate применяет встроенные миграции схемы.
func (s *Storage) Migrate() error {
	const op = "storage.Migrate"
	if err := migrations.Run(s.DB.DB, s.driver); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что схема создана.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var count int
	err := storage.DB.QueryRowxContext(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&count)
	if err != nil {
		return fmt.Errorf("required table subscriptions missing or query error: %w", err)
	}
	return nil
}

// Tx единица работы. Все методы репозитория выполняются внутри неё.
type Tx struct {
	tx *sqlx.Tx
}

// WithinTx открывает транзакцию, выполняет fn и фиксирует результат.
// Ошибка или паника в fn откатывают транзакцию до её освобождения,
// частичных изменений не остаётся.
func (s *Storage) WithinTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	const op = "storage.WithinTx"

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("%s: rollback: %w", op, rbErr))
			}
		}
	}()

	if err = fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func (t *Tx) rebind(query string) string {
	return t.tx.Rebind(query)
}

// translate приводит ошибки драйверов к доменным.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", models.ErrDuplicate, pgErr.ConstraintName)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", models.ErrDuplicate, liteErr.Error())
		}
	}
	return err
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

// Version возвращает текущую версию схемы.
func (s *Storage) Version() (uint, error) {
	const op = "storage.Version"
	v, dirty, err := migrations.Version(s.DB.DB, s.driver)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if dirty {
		return v, fmt.Errorf("%s: schema version %d is dirty", op, v)
	}
	return v, nil
}
