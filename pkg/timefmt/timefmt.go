// Package timefmt provides parsing and formatting for the timestamp dialects
// used by subtitle formats and the Datatracker schedule API.
package timefmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseClock parses a colon-delimited timestamp string to seconds.
// Accepted shapes: "HH:MM:SS", "MM:SS", or bare seconds ("83" or "83.5").
// Fractional seconds are preserved. Returns 0 on parse failure.
func ParseClock(ts string) float64 {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		s, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0
		}
		return float64(h)*3600 + float64(m)*60 + s
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		s, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0
		}
		return float64(m)*60 + s
	case 1:
		s, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0
		}
		return s
	default:
		return 0
	}
}

// ParseClockDuration parses a "HH:MM:SS" or "MM:SS" duration string to whole
// seconds. The Datatracker reports timeslot durations in this shape.
func ParseClockDuration(d string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(d), ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		s, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, false
		}
		return h*3600 + m*60 + s, true
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		s, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return m*60 + s, true
	default:
		return 0, false
	}
}

// SRTTime formats seconds as an SRT timestamp (HH:MM:SS,mmm).
func SRTTime(seconds float64) string {
	h, m, s, ms := splitClock(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// VTTTime formats seconds as a WebVTT timestamp (HH:MM:SS.mmm).
func VTTTime(seconds float64) string {
	h, m, s, ms := splitClock(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitClock(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int(math.Round(seconds * 1000))
	h = totalMs / 3600000
	m = (totalMs % 3600000) / 60000
	s = (totalMs % 60000) / 1000
	ms = totalMs % 1000
	return h, m, s, ms
}
