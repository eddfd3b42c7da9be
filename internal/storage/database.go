package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// Connection options are passed in the DSN so every pooled connection gets them:
// foreign keys on, a busy timeout, WAL journaling, and BEGIN IMMEDIATE for
// transactions so a writer holds the write lock from its first statement.
func New(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		// No foreign key on parent_id: subtree deletes remove a parent and its children in one statement.
		`CREATE TABLE IF NOT EXISTS forest_index (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_id TEXT UNIQUE,
			parent_id INTEGER,
			tree_type TEXT NOT NULL DEFAULT 'default',
			lft INTEGER,
			rgt INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_forest_index_parent ON forest_index(parent_id);`,
		`CREATE INDEX IF NOT EXISTS idx_forest_index_type_lft ON forest_index(tree_type, lft);`,
		`CREATE INDEX IF NOT EXISTS idx_forest_index_type_rgt ON forest_index(tree_type, rgt);`,
		`CREATE TABLE IF NOT EXISTS forest_content (
			id TEXT PRIMARY KEY,
			parent_id TEXT,
			tree_type TEXT NOT NULL DEFAULT 'default',
			name TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_forest_content_parent ON forest_content(parent_id);`,
		`CREATE INDEX IF NOT EXISTS idx_forest_content_type ON forest_content(tree_type);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
