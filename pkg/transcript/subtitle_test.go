package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func subtitleFixture() *Result {
	return &Result{
		Segments: []Segment{
			{ID: 0, Start: 0, End: 5.5, Text: "Welcome everyone."},
			{ID: 1, Start: 5.5, End: 12.042, Text: "Let's get started."},
		},
	}
}

func TestToSRT(t *testing.T) {
	out := ToSRT(subtitleFixture())

	assert.Contains(t, out, "1\n00:00:00,000 --> 00:00:05,500\nWelcome everyone.")
	assert.Contains(t, out, "2\n00:00:05,500 --> 00:00:12,042\nLet's get started.")
	// Comma decimals, never periods, in timestamps.
	assert.NotContains(t, out, "00:00:05.500")
}

func TestToWebVTT(t *testing.T) {
	out := ToWebVTT(subtitleFixture())

	assert.True(t, strings.HasPrefix(out, "WEBVTT\n\n"))
	assert.Contains(t, out, "00:00:00.000 --> 00:00:05.500")
	assert.Contains(t, out, "00:00:12.042")
	assert.NotContains(t, out, "00:00:12,042")
}

func TestToSRT_VerbatimText(t *testing.T) {
	res := &Result{Segments: []Segment{{Start: 0, End: 1, Text: "no  rewrapping --> kept"}}}
	assert.Contains(t, ToSRT(res), "no  rewrapping --> kept")
}
