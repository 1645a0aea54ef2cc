package mysql

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"strconv"

	drv "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"autoservice/internal/config"
	"autoservice/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

const errDuplicateEntry = 1062

type Storage struct {
	*repo
	db *sqlx.DB
}

// repo реализует storage.Repository поверх *sqlx.DB или *sqlx.Tx.
type repo struct {
	ext sqlx.ExtContext
}

func New(cfg config.Config) (*Storage, error) {
	const op = "storage.mysql.New"

	dsn := DSN(cfg)
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	if err := migrateUp(db, cfg.DBName); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already opened connection, the schema must be in place.
func NewWithDB(db *sqlx.DB) *Storage {
	return &Storage{repo: &repo{ext: db}, db: db}
}

func DSN(cfg config.Config) string {
	c := drv.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	c.DBName = cfg.DBName
	c.ParseTime = cfg.ParseTime
	c.MultiStatements = true
	return c.FormatDSN()
}

func migrateUp(db *sqlx.DB, dbName string) error {
	const op = "storage.mysql.migrateUp"

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("%s: source: %w", op, err)
	}

	driver, err := migratemysql.WithInstance(db.DB, &migratemysql.Config{DatabaseName: dbName})
	if err != nil {
		return fmt.Errorf("%s: driver: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: up: %w", op, err)
	}
	return nil
}

func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, repo storage.Repository) error) error {
	const op = "storage.mysql.WithTx"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &repo{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func isDuplicate(err error) bool {
	var myErr *drv.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}
