package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the schema. Every statement is idempotent so it runs on
// each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN is re-run on every open.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS transcripts (
		id            TEXT PRIMARY KEY,
		started_at    TEXT NOT NULL,
		ended_at      TEXT NOT NULL,
		mode          TEXT NOT NULL
		              CHECK(mode IN ('general','crop-analysis','weather','market','sensors','pest-detection')),
		degraded      INTEGER NOT NULL DEFAULT 0,
		message_count INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transcripts_started ON transcripts(started_at)`,

	`CREATE TABLE IF NOT EXISTS transcript_messages (
		id            TEXT PRIMARY KEY,
		transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		role          TEXT NOT NULL CHECK(role IN ('user','assistant')),
		text          TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		mode          TEXT NOT NULL DEFAULT 'general',
		suggestions   TEXT NOT NULL DEFAULT '[]',
		confidence    INTEGER CHECK(confidence IS NULL OR (confidence BETWEEN 0 AND 100)),
		UNIQUE(transcript_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transcript_messages_transcript ON transcript_messages(transcript_id, seq)`,

	`ALTER TABLE transcript_messages ADD COLUMN source TEXT NOT NULL DEFAULT ''`,
}
