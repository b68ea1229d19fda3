package database

type migration struct {
	id   int
	name string
	sql  string
}

var migrations = []migration{
	{
		id:   1,
		name: "initial_schema",
		sql: `
			-- Sessions: one running simulation hosted by the server
			CREATE TABLE sessions (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				map_id TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'running',
				cycle INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_sessions_status ON sessions(status);

			-- Saves: lz4-compressed save records with a blake3 checksum of the body
			CREATE TABLE saves (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL,
				name TEXT NOT NULL,
				cycle INTEGER NOT NULL,
				sync_hash TEXT NOT NULL,
				checksum TEXT NOT NULL,
				size INTEGER NOT NULL,
				body BLOB NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_saves_session ON saves(session_id, cycle);
		`,
	},
	{
		id:   2,
		name: "history",
		sql: `
			CREATE TABLE history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id TEXT NOT NULL,
				cycle INTEGER NOT NULL,
				player INTEGER NOT NULL,
				event_type TEXT NOT NULL,
				unit TEXT,
				message TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_history_session ON history(session_id, id);
		`,
	},
	{
		id:   3,
		name: "spectators",
		sql: `
			-- Spectators: viewer tokens (no accounts, just tokens)
			CREATE TABLE spectators (
				id TEXT PRIMARY KEY,
				token TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				last_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_spectators_token ON spectators(token);
		`,
	},
}
