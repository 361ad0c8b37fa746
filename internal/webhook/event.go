package webhook

import (
	"errors"
	"fmt"
	"strings"
)

// Event values the platform marks on chat bot messages. Anything else
// hitting the webhook is a non-chat notification and is ignored.
const (
	actionChatBotMessage = "chat_bot_message_sent"
	categoryBotMessage   = "bot_message_notification"
)

// ErrMalformedPayload means the event is a chat bot message but lacks a
// field the dispatch needs.
var ErrMalformedPayload = errors.New("malformed event payload")

// PayloadError identifies which required field a chat message event lacks.
// Message is safe to return to the caller.
type PayloadError struct {
	Field   string
	Message string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed event payload: %s (%s)", e.Message, e.Field)
}

// Is lets errors.Is(err, ErrMalformedPayload) match any PayloadError.
func (e *PayloadError) Is(target error) bool { return target == ErrMalformedPayload }

// InboundEvent mirrors the platform's webhook notification payload. One per
// request; never persisted.
type InboundEvent struct {
	Action   string `json:"action"`
	Category string `json:"category"`
	Message  struct {
		Text string `json:"text"`
	} `json:"message"`
	Bot struct {
		BotUserID string `json:"bot_userid"`
	} `json:"bot"`
	Channel struct {
		ChannelURL string `json:"channel_url"`
	} `json:"channel"`
}

// ActionableEvent is a classified chat message ready for answer resolution.
// Text is whitespace-trimmed but keeps its original case; matching is
// case-insensitive downstream, and logs show what the user actually typed.
type ActionableEvent struct {
	Text       string
	BotUserID  string
	ChannelURL string
}

// Classify decides whether ev is an actionable chat message.
//
// Returns (nil, nil) when the event is some other notification type, an
// expected outcome that must map to a success response upstream.
// Returns ErrMalformedPayload when the event is a chat message but is
// missing its text, bot ID, or channel URL.
func Classify(ev *InboundEvent) (*ActionableEvent, error) {
	if ev.Action != actionChatBotMessage || ev.Category != categoryBotMessage {
		return nil, nil
	}

	text := strings.TrimSpace(ev.Message.Text)
	if text == "" {
		return nil, &PayloadError{Field: "message.text", Message: "Message text missing"}
	}
	if ev.Bot.BotUserID == "" {
		return nil, &PayloadError{Field: "bot.bot_userid", Message: "Bot user ID missing"}
	}
	if ev.Channel.ChannelURL == "" {
		return nil, &PayloadError{Field: "channel.channel_url", Message: "Channel URL missing"}
	}

	return &ActionableEvent{
		Text:       text,
		BotUserID:  ev.Bot.BotUserID,
		ChannelURL: ev.Channel.ChannelURL,
	}, nil
}
