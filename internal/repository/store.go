package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// Store owns the single SQLite connection for the live database file.
// The connection is opened lazily-once at startup and closed only on
// shutdown or for the restore file swap; Close/Reopen exist so the backup
// engine can replace the file underneath without a handle still open on it.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// OpenStore opens (creating if necessary) the SQLite database at path and
// initializes the schema.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	log.Printf("[Store] Initialized with database: %s", path)
	return s, nil
}

func (s *Store) open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite supports a single writer; one connection also means the
	// guarded upserts serialize without any extra locking.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Foreign keys are off by default in SQLite; the inventory cascade
	// depends on them.
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := createTables(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
	return nil
}

// createTables creates the catalog and inventory tables.
func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS master_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		barcode TEXT UNIQUE,
		name TEXT NOT NULL,
		image_path TEXT NOT NULL,
		thumb_path TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS inventory_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL UNIQUE,
		expiry_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (product_id) REFERENCES master_products(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_inventory_expiry_date ON inventory_items(expiry_date);
	CREATE INDEX IF NOT EXISTS idx_master_name ON master_products(name);
	`
	_, err := db.Exec(query)
	return err
}

// Path returns the live database file path.
func (s *Store) Path() string {
	return s.path
}

// ExecContext runs a statement against the live connection. After Close the
// underlying handle reports sql.ErrConnDone.
func (s *Store) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.handle().ExecContext(ctx, query, args...)
}

// QueryContext runs a query against the live connection.
func (s *Store) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.handle().QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query against the live connection.
func (s *Store) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.handle().QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction on the live connection.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.handle().BeginTx(ctx, nil)
}

func (s *Store) handle() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Checkpoint flushes the WAL into the main database file so a plain file
// copy of it is complete. Export must call this before copying.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.handle().PingContext(ctx)
}

// Stats returns statistics about the live database.
func (s *Store) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var products int64
	if err := s.QueryRowContext(ctx, "SELECT COUNT(*) FROM master_products").Scan(&products); err != nil {
		return nil, err
	}
	stats["master_products"] = products

	var items int64
	if err := s.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory_items").Scan(&items); err != nil {
		return nil, err
	}
	stats["inventory_items"] = items

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	s.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	s.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize
	stats["db_file"] = s.path

	return stats, nil
}

// Close closes the live connection. Mandatory before the restore file swap:
// replacing a database file that is still open risks corruption.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The handle stays in place so in-flight callers see sql.ErrConnDone
	// rather than a nil dereference; Reopen swaps in a fresh one.
	return s.db.Close()
}

// Reopen re-establishes the connection after the restore file swap and
// re-runs schema init against the restored file.
func (s *Store) Reopen() error {
	if err := s.open(); err != nil {
		return err
	}
	log.Printf("[Store] Reopened database: %s", s.path)
	return nil
}
