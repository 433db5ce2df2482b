package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

// Querier is the subset of operations repositories need; both the base
// connection and an open transaction satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

// DB is the database handle shared by all repositories.
type DB interface {
	Querier
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error)
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

func (db *DatabaseInstance) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error) {
	return GetTx(ctx, db.logger, db, opts)
}

// ConnectionConfig describes a Postgres connection.
type ConnectionConfig struct {
	Driver          string
	Host            string
	Port            string
	UserName        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens and pings a database connection.
func Connect(ctx context.Context, cfg ConnectionConfig, logger ectologger.Logger) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.UserName, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	conn, err := sqlx.ConnectContext(ctx, cfg.Driver, dsn)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Errorf("failed to connect to database '%s'", cfg.Name)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return NewDatabaseInstance(conn, logger), nil
}

// FromContext returns the open context transaction when one exists, otherwise
// the base handle. Repositories route all queries through this so work joins
// an engine transaction automatically.
func FromContext(ctx context.Context, fallback DB) Querier {
	tx, ok := ctx.Value(txKey).(Tx)
	if ok && tx != nil && tx.IsOpen() {
		return tx
	}
	return fallback
}
