package ietf

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChatText renders chat messages as a plain-text log, one message per line.
func ChatText(messages []ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		ts := msg.Timestamp.UTC().Format("2006-01-02 15:04:05")
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", ts, msg.Sender, msg.Content))
	}
	return strings.Join(lines, "\n")
}

// ChatJSON renders chat messages as a JSON array string.
func ChatJSON(messages []ChatMessage) (string, error) {
	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("marshal chat messages: %w", err)
	}
	return string(data), nil
}
