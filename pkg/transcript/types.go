// Package transcript normalizes provider-specific transcript payloads into
// one canonical segment sequence. Three sources supply conceptually the same
// thing (timed text) but disagree on field names, units, and null-value
// conventions; normalizing early means every downstream consumer (record
// assembly, subtitle export, validation) operates on one shape.
package transcript

// Segment is one timed span of speech.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`

	// Speaker is a party index in the enclosing vCon, when attributed.
	Speaker *int `json:"speaker,omitempty"`

	// Confidence is in [0, 1] when the provider reports one.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Result is a normalized transcript from any provider.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Provider string    `json:"provider"`
	Model    string    `json:"model,omitempty"`
}
