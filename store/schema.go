package store

// A NULL pills.amount means stock tracking is not configured for that
// pill; availability checks treat it as unlimited.

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS patients (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pills (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'solid',
	amount INTEGER
);

CREATE TABLE IF NOT EXISTS queues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	queue_number INTEGER NOT NULL,
	patient_id INTEGER NOT NULL REFERENCES patients(id),
	room TEXT NOT NULL DEFAULT '1',
	status TEXT NOT NULL DEFAULT 'pending',
	note TEXT,
	served_at TEXT,
	created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS queue_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	queue_id INTEGER NOT NULL REFERENCES queues(id) ON DELETE CASCADE,
	pill_id INTEGER NOT NULL,
	quantity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	queue_id INTEGER,
	event TEXT NOT NULL,
	message TEXT,
	ts TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE INDEX IF NOT EXISTS idx_queues_status ON queues(status);
CREATE INDEX IF NOT EXISTS idx_queue_items_queue ON queue_items(queue_id);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(id DESC);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS patients (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pills (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'solid',
	amount BIGINT
);

CREATE TABLE IF NOT EXISTS queues (
	id BIGSERIAL PRIMARY KEY,
	queue_number BIGINT NOT NULL,
	patient_id BIGINT NOT NULL REFERENCES patients(id),
	room TEXT NOT NULL DEFAULT '1',
	status TEXT NOT NULL DEFAULT 'pending',
	note TEXT,
	served_at TEXT,
	created_at TEXT NOT NULL DEFAULT to_char(NOW(), 'YYYY-MM-DD HH24:MI:SS')
);

CREATE TABLE IF NOT EXISTS queue_items (
	id BIGSERIAL PRIMARY KEY,
	queue_id BIGINT NOT NULL REFERENCES queues(id) ON DELETE CASCADE,
	pill_id BIGINT NOT NULL,
	quantity BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	queue_id BIGINT,
	event TEXT NOT NULL,
	message TEXT,
	ts TEXT NOT NULL DEFAULT to_char(NOW(), 'YYYY-MM-DD HH24:MI:SS')
);

CREATE INDEX IF NOT EXISTS idx_queues_status ON queues(status);
CREATE INDEX IF NOT EXISTS idx_queue_items_queue ON queue_items(queue_id);
`
