package timefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"hours minutes seconds", "01:02:03", 3723},
		{"minutes seconds", "01:23", 83},
		{"bare seconds", "83", 83},
		{"fractional seconds", "00:01:23.5", 83.5},
		{"whitespace trimmed", " 00:10 ", 10},
		{"garbage defaults to zero", "not-a-time", 0},
		{"partial garbage defaults to zero", "aa:10", 0},
		{"empty defaults to zero", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClock(tt.input))
		})
	}
}

func TestParseClockDuration(t *testing.T) {
	secs, ok := ParseClockDuration("02:00:00")
	assert.True(t, ok)
	assert.Equal(t, 7200, secs)

	secs, ok = ParseClockDuration("90:00")
	assert.True(t, ok)
	assert.Equal(t, 5400, secs)

	_, ok = ParseClockDuration("7200")
	assert.False(t, ok)

	_, ok = ParseClockDuration("bogus")
	assert.False(t, ok)
}

func TestSRTTime(t *testing.T) {
	assert.Equal(t, "00:00:00,000", SRTTime(0))
	assert.Equal(t, "00:01:23,500", SRTTime(83.5))
	assert.Equal(t, "01:02:03,042", SRTTime(3723.042))
	assert.Equal(t, "00:00:00,000", SRTTime(-1))
}

func TestVTTTime(t *testing.T) {
	assert.Equal(t, "00:00:05,579", SRTTime(5.579))
	assert.Equal(t, "00:00:05.579", VTTTime(5.579))
	assert.Equal(t, "01:02:03.042", VTTTime(3723.042))
}
