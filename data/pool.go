package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	MaxOpenConns   = 5
	MaxIdleConns   = 1
	AcquireTimeout = 5 * time.Second
)

var ErrPoolClosed = errors.New("db pool is closed")

// Pool lazily opens a small postgres pool on first use and lends out
// connections from it. The zero value is not usable, see NewPool.
type Pool struct {
	dsn     string
	connect func(ctx context.Context, dsn string) (*sqlx.DB, error)

	mu sync.Mutex
	db *sqlx.DB
}

func NewPool(dsn string) *Pool {
	return &Pool{
		dsn:     dsn,
		connect: connectPostgres,
	}
}

// WrapDB returns a pool backed by an already open database.
func WrapDB(db *sqlx.DB) *Pool {
	return &Pool{db: db}
}

func connectPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	return db, nil
}

// DB returns the underlying pool, opening it if needed. Opening happens once;
// a failed open is returned as is and retried only by the next call.
func (p *Pool) DB(ctx context.Context) (*sqlx.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}
	if p.connect == nil {
		return nil, ErrPoolClosed
	}

	ctx, cancel := context.WithTimeout(ctx, AcquireTimeout)
	defer cancel()

	db, err := p.connect(ctx, p.dsn)
	if err != nil {
		slog.Error("failed to initialize db pool", "error", err)
		return nil, fmt.Errorf("open db pool: %w", err)
	}

	slog.Info("initialized db connection pool", "max_open", MaxOpenConns, "max_idle", MaxIdleConns)
	p.db = db
	return db, nil
}

// Acquire borrows a connection, waiting at most AcquireTimeout for one.
func (p *Pool) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	db, err := p.DB(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, AcquireTimeout)
	defer cancel()

	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	return conn, nil
}

// Release returns conn to the pool. A nil conn is ignored.
func (p *Pool) Release(conn *sqlx.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		slog.Error("failed to release db connection", "error", err)
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil
	return err
}
