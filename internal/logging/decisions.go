// Package logging persists a durable trail of bandit selections and policy
// updates alongside the engine's stdout logging.
package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const decisionSchema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	persona       TEXT NOT NULL,
	content_type  TEXT NOT NULL,
	kind          TEXT NOT NULL,
	arm           TEXT NOT NULL,
	mode          TEXT,
	epsilon       REAL,
	reward        REAL,
	detail        TEXT,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_log_segment ON decision_log(persona, content_type);
`

// #endregion schema

// #region types

// Decision kinds.
const (
	KindSelection = "selection"
	KindUpdate    = "update"
)

// Entry is one decision-log row.
type Entry struct {
	Persona     string
	ContentType string
	Kind        string // selection | update
	Arm         string
	Mode        string  // explore | exploit (selection only)
	Epsilon     float64 // selection only
	Reward      float64 // update only
	Detail      string
	CreatedAt   time.Time
}

// #endregion types

// #region log

// Init creates the decision_log table.
func Init(db *sql.DB) error {
	if _, err := db.Exec(decisionSchema); err != nil {
		return fmt.Errorf("init decision log: %w", err)
	}
	return nil
}

// LogDecision appends an entry to the decision log.
func LogDecision(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO decision_log (persona, content_type, kind, arm, mode, epsilon, reward, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Persona, entry.ContentType, entry.Kind, entry.Arm,
		nullIfEmpty(entry.Mode), entry.Epsilon, entry.Reward,
		nullIfEmpty(entry.Detail), entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// Recent returns the latest entries for a segment, newest first.
func Recent(db *sql.DB, persona, contentType string, limit int) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT persona, content_type, kind, arm, COALESCE(mode, ''), epsilon, reward, COALESCE(detail, ''), created_at
		 FROM decision_log WHERE persona = ? AND content_type = ?
		 ORDER BY id DESC LIMIT ?`,
		persona, contentType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdStr string
		if err := rows.Scan(&e.Persona, &e.ContentType, &e.Kind, &e.Arm, &e.Mode,
			&e.Epsilon, &e.Reward, &e.Detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion log

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
