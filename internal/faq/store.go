// Package faq resolves user utterances to canned answers from a read-only
// SQLite store of question/answer pairs.
package faq

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Record is one stored question/answer row. Rows are externally owned;
// this package only reads.
type Record struct {
	Question string
	Answer   string
}

// Store is the read interface over the lookup store.
type Store interface {
	// FindAnswer returns the record matching the utterance under the
	// store's match policy, or ok=false when nothing matches.
	FindAnswer(ctx context.Context, utterance string) (rec Record, ok bool, err error)
	Close() error
}

// SQLiteStore reads FAQ rows from a SQLite database. The database is opened
// read-only at process start and is safe for concurrent readers.
type SQLiteStore struct {
	db      *sql.DB
	matcher Matcher
}

// OpenSQLite opens the FAQ database at path read-only.
func OpenSQLite(path string, matcher Matcher) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open faq db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open faq db %s: %w", path, err)
	}
	return &SQLiteStore{db: db, matcher: matcher}, nil
}

// FindAnswer looks up the utterance under the configured match policy.
func (s *SQLiteStore) FindAnswer(ctx context.Context, utterance string) (Record, bool, error) {
	return s.matcher.Find(ctx, s.db, utterance)
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
