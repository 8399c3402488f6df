package vector

import (
	"context"
	"database/sql"
)

const embeddingsSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
    key       TEXT PRIMARY KEY,
    position  INTEGER NOT NULL,
    embedding BLOB
);
CREATE INDEX IF NOT EXISTS embeddings_position ON embeddings(position);
CREATE TABLE IF NOT EXISTS vector_storage (
    name    TEXT PRIMARY KEY,
    "index" BLOB
);
`

// EnsureSchema creates the embeddings and vector_storage tables if they do
// not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, embeddingsSchema)
	return err
}

func tableNames(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}
