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
		Name:    "create transcripts",
		SQL: `
			CREATE TABLE transcripts (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL,
				channel      TEXT NOT NULL,
				thread       TEXT NOT NULL DEFAULT '',
				prompt       TEXT NOT NULL,
				reply        TEXT NOT NULL,
				model        TEXT NOT NULL DEFAULT '',
				duration_ms  INTEGER NOT NULL DEFAULT 0,
				created_at   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_transcripts_user ON transcripts (user_id, created_at);
			CREATE INDEX idx_transcripts_thread ON transcripts (channel, thread);
		`,
	},
}
