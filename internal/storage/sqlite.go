package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBacking 基于 SQLite (WAL 模式) 的键值后端
// SQLiteBacking implements Backing using SQLite with WAL mode. The capacity
// check and the upsert run in one transaction, so a rejected write leaves
// the table untouched.
type SQLiteBacking struct {
	db       *sql.DB
	path     string
	capacity int64
	mu       sync.Mutex
}

// NewSQLiteBacking 创建并初始化 SQLite 数据库
// NewSQLiteBacking opens (or creates) the database at dbPath.
// capacity <= 0 means DefaultCapacity.
func NewSQLiteBacking(dbPath string, capacity int64) (*SQLiteBacking, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	b := &SQLiteBacking{db: db, path: dbPath, capacity: capacity}
	if err := b.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBacking) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL DEFAULT '',
		disposable INTEGER NOT NULL DEFAULT 0,
		cost       INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Path 返回数据库文件路径 / Path returns the database file path
func (b *SQLiteBacking) Path() string {
	return b.path
}

func (b *SQLiteBacking) Capacity() int64 {
	return b.capacity
}

// Close 关闭数据库连接 / Close the database connection
func (b *SQLiteBacking) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *SQLiteBacking) Get(key string) (string, bool, error) {
	var value string
	err := b.db.QueryRow(`SELECT value FROM kv WHERE key=?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (b *SQLiteBacking) Set(key, value string) error {
	return b.put(key, value, false)
}

func (b *SQLiteBacking) SetDisposable(key, value string) error {
	return b.put(key, value, true)
}

func (b *SQLiteBacking) put(key, value string, disposable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var others int64
	if err := tx.QueryRow(`SELECT COALESCE(SUM(cost), 0) FROM kv WHERE key<>?`, key).Scan(&others); err != nil {
		return fmt.Errorf("sum usage: %w", err)
	}
	cost := Cost(key, value)
	if others+cost > b.capacity {
		return fmt.Errorf("set %q (%d > %d bytes): %w", key, others+cost, b.capacity, ErrQuotaExceeded)
	}

	_, err = tx.Exec(`
		INSERT INTO kv (key, value, disposable, cost, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			disposable=excluded.disposable,
			cost=excluded.cost,
			updated_at=excluded.updated_at`,
		key, value, boolToInt(disposable), cost, nowUTC())
	if err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}
	return tx.Commit()
}

func (b *SQLiteBacking) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.db.Exec(`DELETE FROM kv WHERE key=?`, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (b *SQLiteBacking) Entries() ([]Entry, error) {
	rows, err := b.db.Query(`SELECT key, value, disposable FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var disposable int
		if err := rows.Scan(&e.Key, &e.Value, &disposable); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Disposable = disposable != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Helpers ---

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
