package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ietf2vcon/ietf2vcon/pkg/timefmt"
)

// defaultEntrySeconds is the assumed span of an entry that carries only a
// single timestamp.
const defaultEntrySeconds = 5

// LoadTimedEntries parses an arbitrary timestamped-entry transcript, such as
// the JSON export of the Meetecho recording player.
//
// Entries live under "entries" or "transcript"; text under "text" or
// "content"; the start time under "start" or "timestamp"; "end" defaults to
// start+5s when unspecified. Times may be numeric seconds or colon-delimited
// strings (HH:MM:SS, MM:SS, or bare seconds); parse failures default to 0.
// A speaker field is passed through when present.
func LoadTimedEntries(r io.Reader) (*Result, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}

	raw, ok := doc["entries"]
	if !ok {
		raw = doc["transcript"]
	}

	var entries []map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("parsing transcript entries: %w", err)
		}
	}

	segments := make([]Segment, 0, len(entries))
	var fullText []string

	for i, entry := range entries {
		text := stringField(entry, "text", "content")

		start, hasStart := timeField(entry, "start", "timestamp")
		end, hasEnd := timeField(entry, "end")
		if !hasStart {
			start = 0
		}
		if !hasEnd {
			end = start + defaultEntrySeconds
		}

		seg := Segment{
			ID:    i,
			Start: start,
			End:   end,
			Text:  text,
		}
		if speaker, ok := intField(entry, "speaker"); ok {
			seg.Speaker = &speaker
		}

		segments = append(segments, seg)
		fullText = append(fullText, text)
	}

	return &Result{
		Text:     strings.Join(fullText, " "),
		Segments: segments,
		Provider: "meetecho",
	}, nil
}

// stringField returns the first present string value among the given keys.
func stringField(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := entry[key].(string); ok {
			return v
		}
	}
	return ""
}

// timeField returns the first present time value among the given keys,
// accepting numeric seconds or a colon-delimited timestamp string.
func timeField(entry map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := entry[key].(type) {
		case float64:
			return v, true
		case string:
			return timefmt.ParseClock(v), true
		}
	}
	return 0, false
}

// intField returns an integer value, tolerating the float64 shape JSON
// numbers decode to.
func intField(entry map[string]any, key string) (int, bool) {
	if v, ok := entry[key].(float64); ok {
		return int(v), true
	}
	return 0, false
}
