package faq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Matcher is one answer match policy. Both sides of every comparison are
// case-insensitive; the utterance arrives already whitespace-trimmed.
type Matcher interface {
	Name() string
	Find(ctx context.Context, db *sql.DB, utterance string) (Record, bool, error)
}

// NewMatcher returns the matcher for mode: "exact" (default when empty)
// or "contains".
func NewMatcher(mode string) (Matcher, error) {
	switch mode {
	case "", "exact":
		return exactMatcher{}, nil
	case "contains":
		return containsMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown matcher %q", mode)
	}
}

// exactMatcher is the canonical policy: the utterance must equal a stored
// question, ignoring case. At most one row can match a given utterance
// (modulo duplicate rows), so results are deterministic across rebuilds.
type exactMatcher struct{}

func (exactMatcher) Name() string { return "exact" }

func (exactMatcher) Find(ctx context.Context, db *sql.DB, utterance string) (Record, bool, error) {
	return queryOne(ctx, db,
		`SELECT question, answer FROM faqs WHERE LOWER(question) = LOWER(?) LIMIT 1`,
		utterance)
}

// containsMatcher matches when a stored question occurs anywhere inside the
// utterance. Ties between multiple matching rows fall back to rowid order.
type containsMatcher struct{}

func (containsMatcher) Name() string { return "contains" }

func (containsMatcher) Find(ctx context.Context, db *sql.DB, utterance string) (Record, bool, error) {
	return queryOne(ctx, db,
		`SELECT question, answer FROM faqs WHERE INSTR(LOWER(?), LOWER(question)) > 0 ORDER BY rowid LIMIT 1`,
		utterance)
}

func queryOne(ctx context.Context, db *sql.DB, query, utterance string) (Record, bool, error) {
	var rec Record
	err := db.QueryRowContext(ctx, query, utterance).Scan(&rec.Question, &rec.Answer)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("faq query: %w", err)
	}
	return rec, true, nil
}
