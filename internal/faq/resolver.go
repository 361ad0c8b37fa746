package faq

import (
	"context"
	"log/slog"
	"strings"
)

// FallbackAnswer is returned whenever no stored answer can be found,
// including when the store itself errors. A missing answer must never
// become a failed request.
const FallbackAnswer = "Sorry, I don't know how to respond to that."

// Resolver maps a user utterance to a reply string. Resolve never fails.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the stored answer for the utterance, or FallbackAnswer on
// no match. Store errors are swallowed and logged: availability over
// correctness.
func (r *Resolver) Resolve(ctx context.Context, utterance string) string {
	rec, ok, err := r.store.FindAnswer(ctx, strings.TrimSpace(utterance))
	if err != nil {
		slog.Error("faq lookup failed", "error", err)
		return FallbackAnswer
	}
	if !ok {
		return FallbackAnswer
	}
	return rec.Answer
}
