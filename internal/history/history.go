package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ipbot/internal/types"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS ip_changes (
    id         TEXT PRIMARY KEY,
    old_ip     TEXT NOT NULL,
    new_ip     TEXT NOT NULL,
    changed_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ip_changes_changed_at ON ip_changes(changed_at);`

// Store is a SQLite-backed journal of detected IP changes
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the journal database at the given path
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", addSQLiteParams(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Record inserts one change into the journal
func (s *Store) Record(ctx context.Context, change types.IPChange) error {
	query := `
        INSERT INTO ip_changes (id, old_ip, new_ip, changed_at, created_at)
        VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		change.ID,
		change.OldIP,
		change.NewIP,
		change.ChangedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record IP change: %w", err)
	}

	return nil
}

// Recent returns the most recent changes, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]types.IPChange, error) {
	query := `
        SELECT id, old_ip, new_ip, changed_at
        FROM ip_changes
        ORDER BY changed_at DESC
        LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query IP changes: %w", err)
	}

	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var changes []types.IPChange
	for rows.Next() {
		var change types.IPChange
		if err := rows.Scan(&change.ID, &change.OldIP, &change.NewIP, &change.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan IP change: %w", err)
		}
		changes = append(changes, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating IP changes: %w", err)
	}

	return changes, nil
}

// Prune deletes changes older than the given time and returns the
// number of deleted rows
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM ip_changes WHERE changed_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune IP changes: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected > 0 && s.logger != nil {
		s.logger.Debug("Pruned IP change history",
			zap.Int64("deleted", affected),
			zap.Time("before", before))
	}

	return affected, nil
}

// Close closes the journal database
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureDBDir ensures database directory exists
func ensureDBDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// addSQLiteParams adds SQLite specific connection parameters
func addSQLiteParams(dsn string) string {
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_foreign_keys=1",
	}

	query := "?" + strings.Join(params, "&")
	if strings.Contains(dsn, "?") {
		query = "&" + strings.Join(params, "&")
	}

	return dsn + query
}
