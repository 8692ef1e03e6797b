package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteWriter stores records in the events table.
type SQLiteWriter struct {
	db *sql.DB
}

var _ Writer = (*SQLiteWriter)(nil)

// NewSQLiteWriter opens path and applies Schema.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

// Write inserts rec.
func (j *SQLiteWriter) Write(ctx context.Context, rec Record) error {
	payload := string(rec.Payload)
	if payload == "" {
		payload = "null"
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events
		(id, type, recorded_at, payload)
		VALUES (?, ?, ?, ?)`,
		rec.ID, string(rec.Type), rec.At, payload,
	)
	return err
}

func (j *SQLiteWriter) Close() error {
	return j.db.Close()
}
