package database

import (
	"database/sql"
	"fmt"
)

var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE rename_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				pass_id TEXT NOT NULL,
				item_id TEXT NOT NULL DEFAULT '',
				kind TEXT NOT NULL,
				source_path TEXT NOT NULL DEFAULT '',
				target_path TEXT NOT NULL DEFAULT '',
				outcome TEXT NOT NULL,
				error TEXT NOT NULL DEFAULT '',
				dry_run INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_rename_history_pass ON rename_history(pass_id)`,
			`CREATE INDEX idx_rename_history_outcome ON rename_history(outcome)`,
			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
	{
		version: 2,
		up: []string{
			// One row per library pass, webhook or CLI run.
			`CREATE TABLE rename_passes (
				id TEXT PRIMARY KEY,
				trigger TEXT NOT NULL,
				dry_run INTEGER NOT NULL DEFAULT 0,
				started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				finished_at DATETIME,
				error TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX idx_rename_history_item ON rename_history(item_id)`,
			`INSERT INTO schema_version (version) VALUES (2)`,
		},
	},
}

type migration struct {
	version int
	up      []string
}

func currentVersion(db *sql.DB) (int, error) {
	var exists int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}
	var version int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

// applyMigrations applies any pending schema migrations, each in its own
// transaction. Every migration records its own version row.
func applyMigrations(db *sql.DB) error {
	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
