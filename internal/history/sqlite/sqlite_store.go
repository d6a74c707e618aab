package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"quintry/internal/history"
)

const (
	defaultFileName    = "quintry.db"
	defaultBusyTimeout = 5 * time.Second
)

var (
	_ history.HistoryRepository = (*Store)(nil)
	_ history.StatsRepository   = (*Store)(nil)
)

type Options struct {
	// Path of the database file. Its directory is created when missing.
	Path        string
	BusyTimeout time.Duration
}

// Store keeps one connection open for the lifetime of the process. The mutex
// guards the handle against use after Close; the pool itself serializes
// statements since it is capped at a single connection.
type Store struct {
	mu     sync.RWMutex
	db     *sqlx.DB
	logger *zap.Logger
	closed bool

	schemaMu    sync.Mutex
	schemaReady bool
}

func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = defaultFileName
	}
	// file: URIs need an absolute path; a relative one would parse as the
	// URI authority.
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve database path: %w", history.ErrInitialization, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create app data dir: %w", history.ErrInitialization, err)
	}

	db, err := sqlx.Open("sqlite3", dataSourceName(path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %w", history.ErrInitialization, err)
	}

	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("History store opened", zap.String("path", path))
	return store, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// acquire takes the read lock and makes sure the schema exists. The returned
// func releases the lock.
func (s *Store) acquire(ctx context.Context) (func(), error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, history.ErrStoreClosed
	}
	if err := s.ensureSchema(ctx); err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	return s.mu.RUnlock, nil
}

// dataSourceName enables foreign keys and the busy timeout through the DSN so
// every connection the pool opens gets them, and makes transactions take the
// write lock up front.
//
// The path goes out as an escaped file: URI. The driver cuts the DSN at the
// first '?', so a bare path containing one would open the wrong file.
func dataSourceName(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	params.Set("_txlock", "immediate")

	uriPath := filepath.ToSlash(path)
	if !strings.HasPrefix(uriPath, "/") {
		// Windows drive paths: file:///C:/...
		uriPath = "/" + uriPath
	}
	dsn := url.URL{
		Scheme:   "file",
		Path:     uriPath,
		RawQuery: params.Encode(),
	}
	return dsn.String()
}
