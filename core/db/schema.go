package db

import (
	"context"
	"fmt"
)

// EnsureSchema creates the archive tables if they do not exist.
// Statements are idempotent so startup can run this unconditionally.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS thinking_entities (
		name       TEXT PRIMARY KEY,
		is_human   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS eras (
		id         BIGINT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS context_heaps (
		id             BIGINT PRIMARY KEY,
		era_id         BIGINT NOT NULL REFERENCES eras(id) ON DELETE CASCADE,
		kind           TEXT NOT NULL,
		source_id      TEXT NOT NULL,
		parent_heap_id BIGINT REFERENCES context_heaps(id),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_context_heaps_era ON context_heaps(era_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id           BIGINT PRIMARY KEY,
		heap_id      BIGINT NOT NULL REFERENCES context_heaps(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		kind         TEXT NOT NULL,
		sender       TEXT NOT NULL REFERENCES thinking_entities(name),
		parent_id    BIGINT REFERENCES messages(id),
		ref          TEXT NOT NULL DEFAULT '',
		session_id   TEXT,
		ts           TIMESTAMPTZ NOT NULL,
		anchor       BIGINT,
		fingerprint  TEXT NOT NULL,
		payload      JSONB NOT NULL,
		content_text TEXT NOT NULL DEFAULT '',
		metadata     JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (heap_id, seq)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_fingerprint ON messages(fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_search ON messages USING GIN (to_tsvector('english', content_text))`,
	`CREATE INDEX IF NOT EXISTS idx_messages_ref ON messages(ref) WHERE ref <> ''`,

	`CREATE TABLE IF NOT EXISTS compacting_actions (
		id                  BIGINT PRIMARY KEY,
		ended_heap_id       BIGINT REFERENCES context_heaps(id) ON DELETE CASCADE,
		started_heap_id     BIGINT NOT NULL REFERENCES context_heaps(id) ON DELETE CASCADE,
		boundary_message_id BIGINT REFERENCES messages(id),
		ending_message_id   BIGINT REFERENCES messages(id),
		summary             TEXT,
		trigger             TEXT,
		pre_compact_tokens  INTEGER,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_compacting_actions_created ON compacting_actions(created_at DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS notes (
		id          BIGINT PRIMARY KEY,
		target_kind TEXT NOT NULL,
		target_id   BIGINT NOT NULL,
		author      TEXT NOT NULL REFERENCES thinking_entities(name),
		content     TEXT NOT NULL,
		anchor      BIGINT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_target ON notes(target_kind, target_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS ingestion_cursors (
		source_id    TEXT PRIMARY KEY,
		position     BIGINT NOT NULL DEFAULT 0,
		open_heap_id BIGINT REFERENCES context_heaps(id),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS unparsed_entries (
		id          BIGINT PRIMARY KEY,
		source_id   TEXT NOT NULL,
		position    BIGINT NOT NULL,
		raw         TEXT NOT NULL,
		parse_error TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_unparsed_entries_source ON unparsed_entries(source_id, position)`,
}
