package learn

import (
	"database/sql"
	"fmt"
)

// schemaVersion tracks the on-disk layout via PRAGMA user_version so future
// releases can migrate in place.
const schemaVersion = 1

// NOCASE collation folds ASCII only, which is exactly the contract: Latin
// words are case-insensitive keys, Kannada has no case to fold.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS user_words (
		word      TEXT PRIMARY KEY COLLATE NOCASE,
		frequency INTEGER NOT NULL DEFAULT 1,
		last_used INTEGER NOT NULL,
		script    TEXT NOT NULL DEFAULT 'latin'
	)`,
	`CREATE TABLE IF NOT EXISTS user_bigrams (
		word1     TEXT NOT NULL COLLATE NOCASE,
		word2     TEXT NOT NULL COLLATE NOCASE,
		frequency INTEGER NOT NULL DEFAULT 1,
		last_used INTEGER NOT NULL,
		PRIMARY KEY (word1, word2)
	)`,
	`CREATE TABLE IF NOT EXISTS user_trigrams (
		word1     TEXT NOT NULL COLLATE NOCASE,
		word2     TEXT NOT NULL COLLATE NOCASE,
		word3     TEXT NOT NULL COLLATE NOCASE,
		frequency INTEGER NOT NULL DEFAULT 1,
		last_used INTEGER NOT NULL,
		PRIMARY KEY (word1, word2, word3)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_words_rank ON user_words(frequency DESC, last_used DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_user_bigrams_ctx ON user_bigrams(word1, frequency DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_user_trigrams_ctx ON user_trigrams(word1, word2, frequency DESC)`,
}

func initSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}
