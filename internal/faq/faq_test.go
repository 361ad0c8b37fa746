package faq

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// newTestStore seeds a SQLite database with rows and reopens it read-only
// through OpenSQLite, the way the server consumes it.
func newTestStore(t *testing.T, matcherMode string, rows []Record) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "faq.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE faqs (question TEXT NOT NULL, answer TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO faqs (question, answer) VALUES (?, ?)`, r.Question, r.Answer); err != nil {
			t.Fatalf("insert row: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close seed db: %v", err)
	}

	matcher, err := NewMatcher(matcherMode)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	store, err := OpenSQLite(path, matcher)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var testRows = []Record{
	{Question: "what is the wifi password", Answer: "Ask IT."},
	{Question: "reset password", Answer: "Use the self-service portal."},
}

func TestExactMatch_CaseInsensitive(t *testing.T) {
	store := newTestStore(t, "exact", testRows)

	tests := []struct {
		utterance string
		want      string
		wantOK    bool
	}{
		{"what is the wifi password", "Ask IT.", true},
		{"What Is The WiFi Password", "Ask IT.", true},
		{"WHAT IS THE WIFI PASSWORD", "Ask IT.", true},
		{"reset password", "Use the self-service portal.", true},
		{"what is the wifi password please", "", false}, // exact means exact
		{"wifi", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			rec, ok, err := store.FindAnswer(context.Background(), tt.utterance)
			if err != nil {
				t.Fatalf("FindAnswer: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && rec.Answer != tt.want {
				t.Errorf("answer = %q, want %q", rec.Answer, tt.want)
			}
		})
	}
}

func TestContainsMatch(t *testing.T) {
	store := newTestStore(t, "contains", []Record{
		{Question: "wifi password", Answer: "Ask IT."},
	})

	tests := []struct {
		utterance string
		wantOK    bool
	}{
		{"what is the WiFi Password please", true},
		{"wifi password", true},
		{"how do I print", false},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			_, ok, err := store.FindAnswer(context.Background(), tt.utterance)
			if err != nil {
				t.Fatalf("FindAnswer: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestNewMatcher(t *testing.T) {
	for _, mode := range []string{"", "exact", "contains"} {
		if _, err := NewMatcher(mode); err != nil {
			t.Errorf("NewMatcher(%q): %v", mode, err)
		}
	}
	if _, err := NewMatcher("fuzzy"); err == nil {
		t.Error("NewMatcher(\"fuzzy\"): expected error")
	}
}

func TestResolver_StoredAnswer(t *testing.T) {
	r := NewResolver(newTestStore(t, "exact", testRows))
	if got := r.Resolve(context.Background(), "What Is The WiFi Password"); got != "Ask IT." {
		t.Errorf("Resolve = %q, want %q", got, "Ask IT.")
	}
}

func TestResolver_TrimsWhitespace(t *testing.T) {
	r := NewResolver(newTestStore(t, "exact", testRows))
	if got := r.Resolve(context.Background(), "  reset password \n"); got != "Use the self-service portal." {
		t.Errorf("Resolve = %q, want stored answer", got)
	}
}

func TestResolver_FallbackOnMiss(t *testing.T) {
	r := NewResolver(newTestStore(t, "exact", testRows))
	if got := r.Resolve(context.Background(), "how do I expense a llama"); got != FallbackAnswer {
		t.Errorf("Resolve = %q, want fallback", got)
	}
}

func TestResolver_FallbackOnStoreError(t *testing.T) {
	store := newTestStore(t, "exact", testRows)
	store.Close() // force every query to fail

	r := NewResolver(store)
	if got := r.Resolve(context.Background(), "reset password"); got != FallbackAnswer {
		t.Errorf("Resolve = %q, want fallback when the store errors", got)
	}
}
