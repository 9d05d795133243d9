package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create transcript archive",
		SQL: `
			CREATE TABLE transcript (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				message_id  TEXT NOT NULL,
				session_id  TEXT NOT NULL,
				sender_role TEXT NOT NULL,
				text        TEXT NOT NULL,
				source_lang TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_transcript_session ON transcript (session_id, id);
			CREATE UNIQUE INDEX idx_transcript_message ON transcript (message_id);
		`,
	},
}
