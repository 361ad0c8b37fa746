package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/faqbot/internal/auth"
	"github.com/nextlevelbuilder/faqbot/internal/workvivo"
)

const (
	// signatureHeader carries the signed token proving the request origin.
	signatureHeader = "X-Signature-Token"

	maxBodyBytes = 1 << 20
)

// handleWebhook runs the full pipeline for one inbound event: verify,
// classify, resolve, dispatch. Stages are strictly linear; failure at any
// stage short-circuits with a stage-specific status.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "webhook.handle")
	defer span.End()

	requestID := uuid.NewString()
	log := slog.With("request_id", requestID)

	if !s.rateLimiter.Allow() {
		log.Warn("security.rate_limited")
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	// Audit is best-effort; a failed write never blocks the pipeline.
	if err := s.auditLog.Record(r, body); err != nil {
		log.Warn("audit write failed", "error", err)
	}

	// 1. Verify the signature token.
	result, err := s.verifier.Verify(ctx, r.Header.Get(signatureHeader))
	if err != nil {
		s.finish(span, "unauthorized")
		switch {
		case errors.Is(err, auth.ErrMissingToken):
			log.Warn("security.token_missing")
			writeError(w, http.StatusUnauthorized, "Missing token")
		default:
			log.Warn("security.token_rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "Invalid token")
		}
		return
	}

	// 2. Decode and classify the event.
	var event InboundEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.finish(span, "rejected")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	actionable, err := Classify(&event)
	if err != nil {
		s.finish(span, "rejected")
		log.Debug("event rejected", "error", err)
		msg := "Invalid event payload"
		var perr *PayloadError
		if errors.As(err, &perr) {
			msg = perr.Message
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if actionable == nil {
		// Expected for the many non-chat notification types the platform
		// sends to the same endpoint.
		s.finish(span, "ignored")
		log.Debug("event ignored", "action", event.Action, "category", event.Category)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Non-message action received."})
		return
	}

	log.Info("chat message received",
		"channel_url", actionable.ChannelURL,
		"text", actionable.Text,
	)

	// Once verified, the pipeline runs to completion even if the caller
	// goes away: the platform does not expect mid-flight cancellation.
	ctx = context.WithoutCancel(ctx)

	// 3. Resolve an answer. Never fails; degrades to the fallback reply.
	answer := s.answers.Resolve(ctx, actionable.Text)

	reply := workvivo.NewBotMessage(actionable.BotUserID, actionable.ChannelURL, answer)

	// 4. Dispatch. In bypass mode the reply is echoed to the caller instead
	// of being delivered to the messaging API.
	if result.Bypassed {
		s.finish(span, "bypassed")
		writeJSON(w, http.StatusOK, reply)
		return
	}

	if err := s.dispatcher.SendBotMessage(ctx, reply); err != nil {
		s.finish(span, "delivery_failed")
		log.Error("reply dispatch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send response")
		return
	}

	s.finish(span, "dispatched")
	log.Info("reply dispatched", "channel_url", actionable.ChannelURL)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) finish(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String("webhook.outcome", outcome))
}
