package store

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY,
	parent_id INTEGER REFERENCES nodes(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'note',
	usage TEXT NOT NULL DEFAULT '',
	code_snippet TEXT NOT NULL DEFAULT '',
	custom_modules TEXT NOT NULL DEFAULT '[]',
	is_expanded INTEGER NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '',
	is_favorite INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS nodes_by_parent ON nodes(parent_id);
CREATE INDEX IF NOT EXISTS nodes_by_title ON nodes(title);
CREATE INDEX IF NOT EXISTS nodes_by_type ON nodes(type);
CREATE INDEX IF NOT EXISTS nodes_by_favorite ON nodes(is_favorite);
CREATE INDEX IF NOT EXISTS nodes_by_updated ON nodes(updated_at);

CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY,
	note_id INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS history_by_note ON history(note_id, created_at);
`
