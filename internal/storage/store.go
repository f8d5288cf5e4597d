package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/securebank/securebank-init/internal/crypto"
	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	pragmaForeignKeyOn = `PRAGMA foreign_keys=ON`
	defaultJournalMode = "WAL"
	defaultBusyTimeout = 5 * time.Second
)

type Options struct {
	Path        string
	BusyTimeout time.Duration
	JournalMode string
	CardCipher  *crypto.CardCipher
	Logger      *slog.Logger
}

// Store is the one handle to the banking database. All statements run on a
// single pooled connection with foreign keys enforced. Close waits for every
// statement and transaction that is still running.
type Store struct {
	db     *sql.DB
	path   string
	cards  *crypto.CardCipher
	logger *slog.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup

	Repositories
}

func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("open storage: empty path")
	}
	if opts.CardCipher == nil {
		return nil, fmt.Errorf("open storage: card cipher is nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.JournalMode == "" {
		opts.JournalMode = defaultJournalMode
	}

	if dir := filepath.Dir(opts.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("open storage: create parent dir: %w", err)
		}
	}

	db, err := sql.Open(driverName, dataSourceName(opts.Path))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := configureSQLite(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:     db,
		path:   opts.Path,
		cards:  opts.CardCipher,
		logger: opts.Logger,
	}
	store.Repositories = newRepositories(store, opts.CardCipher)

	opts.Logger.Debug("storage opened", "path", opts.Path, "journal_mode", opts.JournalMode)
	return store, nil
}

// dataSourceName asks the driver to switch on foreign keys as each connection
// is created, ahead of any statement we issue.
func dataSourceName(path string) string {
	return path + "?_pragma=foreign_keys(1)"
}

func configureSQLite(ctx context.Context, db *sql.DB, opts Options) error {
	pragmas := []string{
		pragmaForeignKeyOn,
		fmt.Sprintf(`PRAGMA busy_timeout=%d`, opts.BusyTimeout.Milliseconds()),
		`PRAGMA journal_mode=` + strings.ToUpper(opts.JournalMode),
	}
	for _, stmt := range pragmas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("configure sqlite %q: %w", stmt, err)
		}
	}

	var enabled int
	if err := db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		return fmt.Errorf("configure sqlite: read foreign_keys: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("configure sqlite: foreign key enforcement is off")
	}
	return nil
}

// Close stops admitting work, waits for in-flight statements, then closes
// the database handle. Calling it again is a no-op.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	s.logger.Debug("storage closed", "path", s.path)
	return nil
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// DB exposes the raw handle for inspection. Statements run through it are
// not tracked by Close.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.inflight.Done()
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.inflight.Done()
	return s.db.QueryContext(ctx, query, args...)
}

// InTx runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q Querier, repos Repositories) error) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.inflight.Done()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx, newRepositories(tx, s.cards)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.inflight.Add(1)
	return nil
}
