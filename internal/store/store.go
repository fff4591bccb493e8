package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id             TEXT PRIMARY KEY,
	persona        TEXT NOT NULL,
	content_type   TEXT NOT NULL,
	tone           TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	hook           TEXT NOT NULL DEFAULT '',
	beats_json     TEXT NOT NULL DEFAULT '[]',
	voiceover      TEXT NOT NULL DEFAULT '',
	caption        TEXT NOT NULL DEFAULT '',
	cta            TEXT NOT NULL DEFAULT '',
	compliance     TEXT NOT NULL DEFAULT 'pass',
	source         TEXT NOT NULL DEFAULT 'ai',
	is_reference   INTEGER NOT NULL DEFAULT 0,
	score_overall     REAL,
	score_hook        REAL,
	score_originality REAL,
	score_style_fit   REAL,
	score_safety      REAL,
	ratings_count  INTEGER NOT NULL DEFAULT 0,
	embedding      BLOB,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_segment ON items(persona, content_type);

CREATE TABLE IF NOT EXISTS ratings (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id      TEXT NOT NULL,
	rater        TEXT NOT NULL DEFAULT 'human',
	overall      REAL NOT NULL,
	hook         REAL,
	originality  REAL,
	style_fit    REAL,
	safety       REAL,
	notes        TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	FOREIGN KEY (item_id) REFERENCES items(id)
);
CREATE INDEX IF NOT EXISTS idx_ratings_item ON ratings(item_id);

CREATE TABLE IF NOT EXISTS auto_scores (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id      TEXT NOT NULL,
	overall      REAL NOT NULL,
	hook         REAL NOT NULL,
	originality  REAL NOT NULL,
	style_fit    REAL NOT NULL,
	safety       REAL NOT NULL,
	confidence   REAL NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	FOREIGN KEY (item_id) REFERENCES items(id)
);
CREATE INDEX IF NOT EXISTS idx_auto_scores_item ON auto_scores(item_id);

CREATE TABLE IF NOT EXISTS policies (
	persona           TEXT NOT NULL,
	content_type      TEXT NOT NULL,
	w_semantic        REAL NOT NULL,
	w_lexical         REAL NOT NULL,
	w_quality         REAL NOT NULL,
	w_freshness       REAL NOT NULL,
	temp_low          REAL NOT NULL,
	temp_mid          REAL NOT NULL,
	temp_high         REAL NOT NULL,
	success_rate      REAL NOT NULL DEFAULT 0,
	total_generations INTEGER NOT NULL DEFAULT 0,
	version           INTEGER NOT NULL DEFAULT 1,
	updated_at        TEXT NOT NULL,
	PRIMARY KEY (persona, content_type)
);
`

// #endregion schema

// #region store-struct
// Store manages items, ratings, auto-scores, and policies in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor
