package transcript

import (
	"fmt"
	"strings"

	"github.com/ietf2vcon/ietf2vcon/pkg/timefmt"
)

// ToSRT renders a transcript in SRT subtitle format: sequential-numbered
// blocks with comma-decimal timestamps. Segment text is emitted verbatim.
func ToSRT(result *Result) string {
	var b strings.Builder

	for i, seg := range result.Segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", timefmt.SRTTime(seg.Start), timefmt.SRTTime(seg.End))
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// ToWebVTT renders a transcript in WebVTT subtitle format: a WEBVTT header
// followed by numbered blocks with period-decimal timestamps.
func ToWebVTT(result *Result) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")

	for i, seg := range result.Segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", timefmt.VTTTime(seg.Start), timefmt.VTTTime(seg.End))
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
