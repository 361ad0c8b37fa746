package workvivo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendBotMessage_Success(t *testing.T) {
	var got struct {
		auth        string
		workvivoID  string
		contentType string
		body        BotMessage
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.auth = r.Header.Get("Authorization")
		got.workvivoID = r.Header.Get("Workvivo-Id")
		got.contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token", "wv-42")
	msg := NewBotMessage("bot-1", "https://chat.example.com/ch/9", "Ask IT.")
	if err := c.SendBotMessage(context.Background(), msg); err != nil {
		t.Fatalf("SendBotMessage: %v", err)
	}

	if got.auth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want %q", got.auth, "Bearer secret-token")
	}
	if got.workvivoID != "wv-42" {
		t.Errorf("Workvivo-Id = %q, want %q", got.workvivoID, "wv-42")
	}
	if got.contentType != "application/json" {
		t.Errorf("Content-Type = %q", got.contentType)
	}
	if got.body != msg {
		t.Errorf("delivered body = %+v, want %+v", got.body, msg)
	}
	if got.body.Type != "message" {
		t.Errorf("type = %q, want %q", got.body.Type, "message")
	}
}

func TestSendBotMessage_Accepted(t *testing.T) {
	// Any 2xx counts as delivered.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", "id")
	if err := c.SendBotMessage(context.Background(), NewBotMessage("b", "ch", "hi")); err != nil {
		t.Fatalf("SendBotMessage: %v", err)
	}
}

func TestSendBotMessage_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", "id")
	err := c.SendBotMessage(context.Background(), NewBotMessage("b", "ch", "hi"))

	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DeliveryError", err)
	}
	if derr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", derr.StatusCode)
	}
	if derr.Body != `{"error":"maintenance"}` {
		t.Errorf("body excerpt = %q", derr.Body)
	}
}

func TestSendBotMessage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, "t", "id")
	err := c.SendBotMessage(context.Background(), NewBotMessage("b", "ch", "hi"))
	if err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
	var derr *DeliveryError
	if errors.As(err, &derr) {
		t.Fatalf("network failure must not be a DeliveryError, got %v", derr)
	}
}
