package vcon

import (
	"math"
	"time"

	"github.com/ietf2vcon/ietf2vcon/pkg/transcript"
)

// TranscriptAnalysis converts a normalized transcript into a WTF
// transcription analysis: full text with language, time-aligned segments
// with optional speaker attribution and confidence, and provider metadata.
// Per-segment speaker and confidence appear only when the source carries
// them, never as nulls.
func TranscriptAnalysis(result *transcript.Result, dialogIndex int) Analysis {
	language := result.Language
	if language == "" {
		language = "en"
	}

	tr := map[string]any{
		"text":     result.Text,
		"language": language,
		"duration": result.Duration,
	}
	if avg, ok := averageConfidence(result.Segments); ok {
		tr["confidence"] = avg
	}

	segments := make([]any, len(result.Segments))
	for i, seg := range result.Segments {
		entry := map[string]any{
			"id":    seg.ID,
			"start": round3(seg.Start),
			"end":   round3(seg.End),
			"text":  seg.Text,
		}
		if seg.Speaker != nil {
			entry["speaker"] = *seg.Speaker
		}
		if seg.Confidence != nil {
			entry["confidence"] = round4(*seg.Confidence)
		}
		segments[i] = entry
	}

	body := map[string]any{
		"transcript": tr,
		"segments":   segments,
		"metadata": map[string]any{
			"created_at":    time.Now().UTC().Format(time.RFC3339),
			"provider":      result.Provider,
			"model":         result.Model,
			"segment_count": len(result.Segments),
		},
	}

	dialog := dialogIndex
	return Analysis{
		Type:     AnalysisWTFTranscription,
		Dialog:   &dialog,
		Vendor:   result.Provider,
		Spec:     SpecWTFTranscription,
		Body:     body,
		Encoding: "none",
	}
}

func averageConfidence(segments []transcript.Segment) (float64, bool) {
	sum := 0.0
	n := 0
	for _, seg := range segments {
		if seg.Confidence != nil {
			sum += *seg.Confidence
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
