// Package workvivo is a lightweight Workvivo messaging API client using
// net/http. It delivers bot replies constructed by the webhook pipeline.
package workvivo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxErrorBodyBytes = 2048

// BotMessage is the outbound reply envelope. Message MUST be a flat string;
// the Workvivo API rejects nested structures in that field.
type BotMessage struct {
	BotUserID  string `json:"bot_userid"`
	ChannelURL string `json:"channel_url"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

// NewBotMessage builds a reply envelope of type "message".
func NewBotMessage(botUserID, channelURL, text string) BotMessage {
	return BotMessage{
		BotUserID:  botUserID,
		ChannelURL: channelURL,
		Type:       "message",
		Message:    text,
	}
}

// DeliveryError reports a non-2xx response from the messaging endpoint,
// carrying the upstream status and a body excerpt for diagnostics.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("workvivo delivery failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client posts bot messages to the configured Workvivo endpoint.
type Client struct {
	apiURL     string
	token      string
	workvivoID string
	httpClient *http.Client
}

// NewClient creates a Workvivo client. workvivoID is the tenant identifier
// sent as the Workvivo-Id header on every call.
func NewClient(apiURL, token, workvivoID string) *Client {
	return &Client{
		apiURL:     apiURL,
		token:      token,
		workvivoID: workvivoID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendBotMessage delivers msg to the messaging endpoint. Any 2xx response is
// success regardless of payload contents; network errors, timeouts, and
// non-2xx statuses are failures. There is no retry.
func (c *Client) SendBotMessage(ctx context.Context, msg BotMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal bot message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("workvivo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Workvivo-Id", c.workvivoID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("workvivo send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return nil
}
