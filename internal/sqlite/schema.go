package sqlite

// FileName is the database file created in the data directory.
const FileName = "stacks.db"

// createDocuments holds one JSON array of records per collection key.
const createDocuments = `CREATE TABLE IF NOT EXISTS documents (
    key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    updated_at TEXT NOT NULL
);`

const (
	selectDocument = `SELECT payload FROM documents WHERE key = ?`
	upsertDocument = `INSERT INTO documents (key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
)
