package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	vconerrors "github.com/ietf2vcon/ietf2vcon/pkg/errors"
	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
)

// ZulipBaseURL is the IETF Zulip instance.
const ZulipBaseURL = "https://zulip.ietf.org"

// DefaultChatLimit caps how many messages are pulled per session stream.
const DefaultChatLimit = 1000

// Zulip reads session chat history from the IETF Zulip server.
type Zulip struct {
	httpAPI
}

// NewZulip returns a Zulip client authenticated with the given bot email
// and API key.
func NewZulip(email, apiKey string, logger logging.Logger) *Zulip {
	return NewZulipWithURL(ZulipBaseURL, email, apiKey, logger)
}

// NewZulipWithURL returns a Zulip client against baseURL, for tests.
func NewZulipWithURL(baseURL, email, apiKey string, logger logging.Logger) *Zulip {
	api := newHTTPAPI(strings.TrimSuffix(baseURL, "/"), DefaultTimeout, logger)
	api.auth = func(req *http.Request) {
		req.SetBasicAuth(email, apiKey)
	}
	return &Zulip{httpAPI: api}
}

type zulipMessage struct {
	Timestamp   int64  `json:"timestamp"`
	SenderName  string `json:"sender_full_name"`
	SenderEmail string `json:"sender_email"`
	Content     string `json:"content"`
	Subject     string `json:"subject"`
}

// GetSessionMessages returns the chat history of a working group's stream,
// oldest first. A missing stream is not an error: groups without a Zulip
// stream yield an empty history.
func (z *Zulip) GetSessionMessages(ctx context.Context, groupAcronym string, limit int) ([]ietf.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	stream := strings.ToLower(groupAcronym)

	narrow, err := json.Marshal([]map[string]string{
		{"operator": "stream", "operand": stream},
	})
	if err != nil {
		return nil, fmt.Errorf("get messages for %s: %w", stream, err)
	}

	params := url.Values{
		"anchor":     {"newest"},
		"num_before": {strconv.Itoa(limit)},
		"num_after":  {"0"},
		"narrow":     {string(narrow)},
	}

	var resp struct {
		Messages []zulipMessage `json:"messages"`
	}
	if err := z.getJSON(ctx, "/api/v1/messages", params, &resp); err != nil {
		if vconerrors.IsNotFound(err) {
			z.logger.Warn("zulip stream not found", logging.F("stream", stream))
			return nil, nil
		}
		return nil, fmt.Errorf("get messages for %s: %w", stream, err)
	}

	messages := make([]ietf.ChatMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, ietf.ChatMessage{
			Timestamp:   time.Unix(m.Timestamp, 0).UTC(),
			Sender:      m.SenderName,
			SenderEmail: m.SenderEmail,
			Content:     m.Content,
			Topic:       m.Subject,
			Stream:      stream,
		})
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}

// FilterByWindow keeps the messages whose timestamp falls inside the
// inclusive [start, end] window. A nil bound leaves that side open.
func FilterByWindow(messages []ietf.ChatMessage, start, end *time.Time) []ietf.ChatMessage {
	var kept []ietf.ChatMessage
	for _, m := range messages {
		if start != nil && m.Timestamp.Before(*start) {
			continue
		}
		if end != nil && m.Timestamp.After(*end) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
