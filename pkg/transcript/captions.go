package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	vconerrors "github.com/ietf2vcon/ietf2vcon/pkg/errors"
)

// YouTube caption tracks are fetched in the JSON3 format: an "events" array
// where each caption event carries a start offset and duration in
// milliseconds plus a list of text fragments.
type captionTrack struct {
	Events []captionEvent `json:"events"`
}

type captionEvent struct {
	StartMs    int              `json:"tStartMs"`
	DurationMs int              `json:"dDurationMs"`
	Segs       []captionSegment `json:"segs"`
}

type captionSegment struct {
	UTF8 string `json:"utf8"`
}

// LoadYouTubeCaptions parses a YouTube JSON3 caption track.
//
// Events without text fragments (style events and the like) are skipped.
// Fragments within one event are concatenated with no separator and trimmed;
// events that trim to nothing are skipped rather than emitted as empty
// segments. Ids are assigned sequentially over emitted segments only.
// Returns ErrNoSegments when the track yields no usable segments.
func LoadYouTubeCaptions(r io.Reader) (*Result, error) {
	var track captionTrack
	if err := json.NewDecoder(r).Decode(&track); err != nil {
		return nil, fmt.Errorf("parsing caption track: %w", err)
	}

	var segments []Segment
	var fullText []string

	segmentID := 0
	for _, event := range track.Events {
		if len(event.Segs) == 0 {
			continue
		}

		startSec := float64(event.StartMs) / 1000.0
		endSec := float64(event.StartMs+event.DurationMs) / 1000.0

		var parts []string
		for _, seg := range event.Segs {
			if strings.TrimSpace(seg.UTF8) != "" {
				parts = append(parts, seg.UTF8)
			}
		}
		if len(parts) == 0 {
			continue
		}

		combined := strings.TrimSpace(strings.Join(parts, ""))
		if combined == "" {
			continue
		}

		segments = append(segments, Segment{
			ID:    segmentID,
			Start: startSec,
			End:   endSec,
			Text:  combined,
		})
		fullText = append(fullText, combined)
		segmentID++
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("caption track: %w", vconerrors.ErrNoSegments)
	}

	return &Result{
		Text:     strings.Join(fullText, " "),
		Segments: segments,
		Language: "en", // caption tracks carry no language field
		Duration: segments[len(segments)-1].End,
		Provider: "youtube",
		Model:    "auto-generated",
	}, nil
}
