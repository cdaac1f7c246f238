// Package persistence provides SQLite-based session storage: one snapshot per
// session, an append-only achievement log, and a small key-value table.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/cookieworks/internal/catalog"
	"github.com/talgya/cookieworks/internal/engine"
)

// ErrNoSave is returned when a session has never been saved.
var ErrNoSave = errors.New("no saved session")

// Meta keys.
const (
	MetaLastSession   = "last_session"   // Most recently saved session id.
	MetaSchemaVersion = "schema_version" // Layout of the tables below.
)

const schemaVersion = "1"

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sqlx.DB
}

// Unlock is one row of the achievement log.
type Unlock struct {
	AchievementID catalog.AchievementID `json:"achievement_id"`
	UnlockedAt    time.Time             `json:"unlocked_at"`
}

// Open opens or creates a SQLite database at the given path, creating its
// directory if needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		session_id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS unlocks (
		session_id TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		unlocked_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_saved_at ON saves(saved_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return db.SaveMeta(MetaSchemaVersion, schemaVersion)
}

// SaveSnapshot replaces the stored snapshot for sessionID and appends any
// newly unlocked achievements to the log, in one transaction.
func (db *DB) SaveSnapshot(ctx context.Context, sessionID string, snap engine.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO saves (session_id, version, saved_at, payload) VALUES (?, ?, ?, ?)",
		sessionID, snap.Version, snap.SavedAt.UnixMilli(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert save %s: %w", sessionID, err)
	}
	if err := recordUnlocks(ctx, tx, sessionID, snap.UnlockedAchievements); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		MetaLastSession, sessionID,
	)
	if err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("session saved", "session", sessionID, "bytes", len(payload))
	return nil
}

// LoadSnapshot returns the stored snapshot for sessionID, or ErrNoSave.
// Migration to the current layout is left to engine.Restore.
func (db *DB) LoadSnapshot(ctx context.Context, sessionID string) (engine.Snapshot, error) {
	var row struct {
		Version int    `db:"version"`
		Payload string `db:"payload"`
	}
	err := db.conn.GetContext(ctx, &row,
		"SELECT version, payload FROM saves WHERE session_id = ?", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, ErrNoSave
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load save %s: %w", sessionID, err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(row.Payload), &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode save %s: %w", sessionID, err)
	}
	if snap.Version == 0 {
		snap.Version = row.Version
	}
	return snap, nil
}

// HasSave reports whether sessionID has a stored snapshot.
func (db *DB) HasSave(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM saves WHERE session_id = ?", sessionID)
	return n > 0, err
}

// LatestSession returns the id of the most recently saved session, or ErrNoSave.
// The last_session meta row wins; saves are scanned only when it is missing or
// names a session with no save.
func (db *DB) LatestSession(ctx context.Context) (string, error) {
	last, err := db.GetMeta(MetaLastSession)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return "", fmt.Errorf("read %s: %w", MetaLastSession, err)
	default:
		ok, err := db.HasSave(ctx, last)
		if err != nil {
			return "", err
		}
		if ok {
			return last, nil
		}
		slog.Warn("last session has no save, scanning saves", "session", last)
	}

	var id string
	err = db.conn.GetContext(ctx, &id, "SELECT session_id FROM saves ORDER BY saved_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSave
	}
	return id, err
}

// recordUnlocks appends unlocks to the achievement log. Ids already logged keep
// their original time.
func recordUnlocks(ctx context.Context, tx *sqlx.Tx, sessionID string, unlocked map[catalog.AchievementID]time.Time) error {
	if len(unlocked) == 0 {
		return nil
	}
	stmt, err := tx.PreparexContext(ctx,
		"INSERT OR IGNORE INTO unlocks (session_id, achievement_id, unlocked_at) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, at := range unlocked {
		if _, err := stmt.ExecContext(ctx, sessionID, string(id), at.UnixMilli()); err != nil {
			return fmt.Errorf("insert unlock %s: %w", id, err)
		}
	}
	return nil
}

// Unlocks returns the achievement log for sessionID, oldest first.
func (db *DB) Unlocks(ctx context.Context, sessionID string) ([]Unlock, error) {
	var rows []struct {
		AchievementID string `db:"achievement_id"`
		UnlockedAt    int64  `db:"unlocked_at"`
	}
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT achievement_id, unlocked_at FROM unlocks WHERE session_id = ? ORDER BY unlocked_at, achievement_id",
		sessionID,
	)
	if err != nil {
		return nil, err
	}

	out := make([]Unlock, len(rows))
	for i, r := range rows {
		out[i] = Unlock{
			AchievementID: catalog.AchievementID(r.AchievementID),
			UnlockedAt:    time.UnixMilli(r.UnlockedAt).UTC(),
		}
	}
	return out, nil
}

// SaveMeta stores a key-value pair in the meta table.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
