// Package storage owns the SQLite handle shared by all repositories.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

// DB wraps the shared database handle so the DI container has a concrete
// service to provide and shut down.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the SQLite database at dbPath and
// ensures the schema exists.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, oops.With("db_dir", dir, "context", "failed to create database directory").Wrap(err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, oops.With("db_path", dbPath, "context", "failed to open database").Wrap(err)
	}

	// modernc sqlite allows a single writer; funnel everything through one
	// connection so concurrent writers queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, oops.With("db_path", dbPath, "context", "failed to create schema").Wrap(err)
	}

	return &DB{DB: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS groups (
	chat_id            INTEGER PRIMARY KEY,
	title              TEXT NOT NULL DEFAULT '',
	is_active          INTEGER NOT NULL DEFAULT 1,
	group_type         TEXT NOT NULL DEFAULT 'other',
	sort_order         INTEGER NOT NULL DEFAULT 0,
	country            TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	owner              TEXT NOT NULL DEFAULT '',
	tags               TEXT NOT NULL DEFAULT '',
	subscribers_count  INTEGER NOT NULL DEFAULT 0,
	delay_min_seconds  INTEGER NOT NULL DEFAULT 180,
	delay_max_seconds  INTEGER NOT NULL DEFAULT 300,
	limit_posts_day    INTEGER NOT NULL DEFAULT 0,
	limit_posts_week   INTEGER NOT NULL DEFAULT 0,
	dedup_window_hours INTEGER NOT NULL DEFAULT 72,
	reject_policy      TEXT NOT NULL DEFAULT 'keep',
	suffix_text        TEXT NOT NULL DEFAULT '',
	buttons            TEXT NOT NULL DEFAULT '[]',
	invite_enabled     INTEGER NOT NULL DEFAULT 0,
	invite_text        TEXT NOT NULL DEFAULT '',
	rules_link         TEXT NOT NULL DEFAULT '',
	paused_at          INTEGER,
	pause_reason       TEXT NOT NULL DEFAULT '',
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fingerprints (
	chat_id  INTEGER NOT NULL,
	hash     TEXT NOT NULL,
	seen_at  INTEGER NOT NULL,
	PRIMARY KEY (chat_id, hash)
);
CREATE INDEX IF NOT EXISTS idx_fingerprints_seen_at ON fingerprints(seen_at);

CREATE TABLE IF NOT EXISTS author_counters (
	chat_id    INTEGER NOT NULL,
	author_id  INTEGER NOT NULL,
	period_key TEXT NOT NULL,
	count      INTEGER NOT NULL DEFAULT 0,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (chat_id, author_id, period_key)
);
CREATE INDEX IF NOT EXISTS idx_author_counters_expires_at ON author_counters(expires_at);

CREATE TABLE IF NOT EXISTS messages (
	chat_id         INTEGER NOT NULL,
	message_id      INTEGER NOT NULL,
	author_id       INTEGER NOT NULL,
	text            TEXT NOT NULL DEFAULT '',
	media_type      TEXT NOT NULL DEFAULT '',
	media_file_id   TEXT NOT NULL DEFAULT '',
	media_unique_id TEXT NOT NULL DEFAULT '',
	forward_from_id INTEGER NOT NULL DEFAULT 0,
	forward_name    TEXT NOT NULL DEFAULT '',
	forward_user    TEXT NOT NULL DEFAULT '',
	media_group_id  TEXT NOT NULL DEFAULT '',
	date            INTEGER NOT NULL,
	PRIMARY KEY (chat_id, message_id)
);

CREATE TABLE IF NOT EXISTS rotation_counters (
	chat_id INTEGER NOT NULL,
	slot    INTEGER NOT NULL,
	idx     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (chat_id, slot)
);

CREATE TABLE IF NOT EXISTS incidents (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id    INTEGER NOT NULL,
	message_id INTEGER NOT NULL,
	author_id  INTEGER NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_invites (
	chat_id         INTEGER NOT NULL,
	author_id       INTEGER NOT NULL,
	author_name     TEXT NOT NULL DEFAULT '',
	author_username TEXT NOT NULL DEFAULT '',
	post_message_id INTEGER NOT NULL DEFAULT 0,
	due_at          INTEGER NOT NULL,
	sent_at         INTEGER,
	created_at      INTEGER NOT NULL,
	PRIMARY KEY (chat_id, author_id)
);
CREATE INDEX IF NOT EXISTS idx_pending_invites_due_at ON pending_invites(due_at);

CREATE TABLE IF NOT EXISTS batch_jobs (
	id              TEXT PRIMARY KEY,
	chat_id         INTEGER NOT NULL,
	from_message_id INTEGER NOT NULL,
	to_message_id   INTEGER NOT NULL,
	cursor          INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'queued',
	processed       INTEGER NOT NULL DEFAULT 0,
	reposted        INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_batch_jobs_chat_id ON batch_jobs(chat_id);
`
