package creditstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the alternative backend for multi-process or larger
// deployments where a flat JSON file becomes a contention point. Grounded
// on the teacher's internal/feedback/store.go: single-writer connection via
// SetMaxOpenConns(1), CREATE TABLE IF NOT EXISTS schema bootstrap.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) a SQLite-backed balance store at
// dbPath. Parent directories are created automatically.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creditstore: create dir %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("creditstore: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initBalanceSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func initBalanceSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS balances (
		key     TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("creditstore: create table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Balance returns key's current balance; an unknown key has balance zero.
func (s *SQLiteStore) Balance(key string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(`SELECT balance FROM balances WHERE key = ?`, key).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("creditstore: query balance: %w", err)
	}
	return balance, nil
}

// SetBalance overwrites key's balance exactly.
func (s *SQLiteStore) SetBalance(key string, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO balances (key, balance) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET balance = excluded.balance`,
		key, balance)
	if err != nil {
		return fmt.Errorf("creditstore: set balance: %w", err)
	}
	return nil
}

// AddCredits increments key's balance by amount.
func (s *SQLiteStore) AddCredits(key string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO balances (key, balance) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET balance = balance + excluded.balance`,
		key, amount)
	if err != nil {
		return 0, fmt.Errorf("creditstore: add credits: %w", err)
	}
	var balance int64
	if err := s.db.QueryRow(`SELECT balance FROM balances WHERE key = ?`, key).Scan(&balance); err != nil {
		return 0, fmt.Errorf("creditstore: read balance: %w", err)
	}
	return balance, nil
}

// Charge debits amount (>=1) from key's balance inside one transaction,
// failing with ErrOutOfCredits if the balance cannot cover it.
func (s *SQLiteStore) Charge(key string, amount int64) (int64, error) {
	if amount < 1 {
		amount = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("creditstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow(`SELECT balance FROM balances WHERE key = ?`, key).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("creditstore: query balance: %w", err)
	}
	if balance < amount {
		return balance, ErrOutOfCredits
	}

	balance -= amount
	_, err = tx.Exec(`
		INSERT INTO balances (key, balance) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET balance = excluded.balance`,
		key, balance)
	if err != nil {
		return 0, fmt.Errorf("creditstore: charge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("creditstore: commit: %w", err)
	}
	return balance, nil
}
