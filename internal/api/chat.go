package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hpungsan/hamper/internal/errors"
)

// Chat stream event types.
const (
	EventAnswer      = "assistant-answers"
	EventSuggestions = "assistant-suggestions"
	EventError       = "error"
)

// ChatSession identifies one assistant conversation.
type ChatSession struct {
	ID string `json:"sessionId"`
}

// ChatEvent is one assistant message from the stream. Err is set only for
// EventError.
type ChatEvent struct {
	Type        string   `json:"type"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	Err         error    `json:"-"`
}

// CreateChatSession opens a new conversation.
func (c *Client) CreateChatSession(ctx context.Context) (*ChatSession, error) {
	var out ChatSession
	if err := c.call(ctx, "chat_session", http.MethodPost, "/chat/sessions", nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.NewBadInput("chat session response missing sessionId")
	}
	return &out, nil
}

type chatMessageRequest struct {
	Message string `json:"message"`
}

// SendChatMessage posts a user message. Replies arrive on the stream.
func (c *Client) SendChatMessage(ctx context.Context, sessionID, message string) error {
	if sessionID == "" {
		return errors.NewInvalidRequest("session id is required")
	}
	if message == "" {
		return errors.NewInvalidRequest("message is required")
	}
	path := "/chat/sessions/" + url.PathEscape(sessionID) + "/messages"
	return c.call(ctx, "chat_message", http.MethodPost, path, chatMessageRequest{Message: message}, nil)
}

// StreamChat subscribes to assistant messages for a session. The channel is
// closed when the server ends the stream or ctx is cancelled; cancel ctx to
// abort the stream.
func (c *Client) StreamChat(ctx context.Context, sessionID string) (<-chan ChatEvent, error) {
	if sessionID == "" {
		return nil, errors.NewInvalidRequest("session id is required")
	}
	path := "/chat/sessions/" + url.PathEscape(sessionID) + "/stream"

	start := time.Now()
	resp, err := c.openStream(ctx, path, true)
	if err = c.finish("chat_stream", start, err); err != nil {
		return nil, err
	}

	events := make(chan ChatEvent, 16)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		send := func(ev ChatEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		err := readSSE(resp.Body, func(raw sseEvent) bool {
			switch raw.Event {
			case EventAnswer, EventSuggestions:
			default:
				return true
			}
			ev := ChatEvent{Type: raw.Event}
			if err := json.Unmarshal([]byte(raw.Data), &ev); err != nil {
				return send(ChatEvent{Type: EventError, Err: errors.NewBadInput(fmt.Sprintf("unreadable %s event: %v", raw.Event, err))})
			}
			ev.Type = raw.Event
			return send(ev)
		})
		if err != nil && ctx.Err() == nil && !stderrors.Is(err, context.Canceled) {
			c.log.Warn("chat stream ended with error", "session", sessionID, "error", err)
			send(ChatEvent{Type: EventError, Err: errors.NewServer(0, fmt.Sprintf("chat stream: %v", err))})
		}
	}()

	return events, nil
}

func (c *Client) openStream(ctx context.Context, path string, allowReissue bool) (*http.Response, error) {
	resp, err := c.send(ctx, c.stream, http.MethodGet, path, nil, "text/event-stream")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if !allowReissue {
			c.auth.Clear()
			return nil, errors.NewUnauthenticated()
		}
		if err := c.reissue(ctx); err != nil {
			return nil, err
		}
		return c.openStream(ctx, path, false)
	}
	if err := statusError(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
