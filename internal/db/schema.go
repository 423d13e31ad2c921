package db

// SchemaSQL is the complete schema for fresh installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests use
// this schema via GetSchemaSQL() instead of hardcoding CREATE TABLE
// statements, so any drift between repository code and schema fails
// immediately with "no such column" at development time.
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Conversations (one chat session each)
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	title TEXT,
	summary TEXT,
	tags TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Messages (ordered turns within a conversation)
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	text TEXT NOT NULL,
	sent_by_user INTEGER NOT NULL DEFAULT 0,
	command_key TEXT NOT NULL DEFAULT '',
	analysis_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE,
	UNIQUE(conversation_id, position)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, position);

-- Analysis results (one per successful command execution)
CREATE TABLE IF NOT EXISTS analysis_results (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	message_id TEXT,
	payload TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_analysis_results_conversation ON analysis_results(conversation_id);

-- Pending tasks (at most one in-flight or failed command per conversation;
-- the UNIQUE constraint on conversation_id is the storage-level second
-- line of defense for that invariant)
CREATE TABLE IF NOT EXISTS pending_tasks (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL UNIQUE,
	command_key TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('loading', 'error')) DEFAULT 'loading',
	error_message TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);
`

// InitSchema creates the database schema
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Completely fresh install - create the schema directly and mark
		// all migrations as applied so they never re-run.
		_, err = db.Exec(SchemaSQL)
		if err != nil {
			return err
		}
		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}
		for i := 1; i <= len(migrations); i++ {
			_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", i)
			if err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
