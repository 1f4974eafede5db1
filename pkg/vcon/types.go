// Package vcon implements the vCon 0.0.1 container format: the data model,
// a builder that assembles records from IETF session data, and a structural
// validator for produced documents.
package vcon

import "time"

// Version is the vCon format version this package produces.
const Version = "0.0.1"

// Reserved attachment and analysis type tags.
const (
	AttachmentMeetingMetadata = "meeting_metadata"
	AttachmentIngressInfo     = "ingress_info"
	AttachmentLawfulBasis     = "lawful_basis"
	AnalysisWTFTranscription  = "wtf_transcription"
)

// Spec references recorded on extension attachments and analyses.
const (
	SpecWTFTranscription = "draft-howe-wtf-transcription-00"
	SpecLawfulBasis      = "draft-howe-vcon-lawful-basis-00"
)

// DialogType is the kind of a dialog entry.
type DialogType string

const (
	DialogRecording  DialogType = "recording"
	DialogVideo      DialogType = "video"
	DialogAudio      DialogType = "audio"
	DialogText       DialogType = "text"
	DialogTransfer   DialogType = "transfer"
	DialogIncomplete DialogType = "incomplete"
)

// Party is a participant in the conversation.
type Party struct {
	Name   string         `json:"name,omitempty"`
	Mailto string         `json:"mailto,omitempty"`
	Tel    string         `json:"tel,omitempty"`
	Role   string         `json:"role,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Dialog is one unit of recorded interaction: a video, an audio track, or a
// text log. It must carry either URL or Body.
type Dialog struct {
	Type      DialogType     `json:"type"`
	Start     time.Time      `json:"start"`
	Parties   []int          `json:"parties"`
	Duration  int            `json:"duration,omitempty"`
	Mimetype  string         `json:"mimetype,omitempty"`
	Filename  string         `json:"filename,omitempty"`
	Body      string         `json:"body,omitempty"`
	Encoding  string         `json:"encoding,omitempty"`
	URL       string         `json:"url,omitempty"`
	Alg       string         `json:"alg,omitempty"`
	Signature string         `json:"signature,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Attachment is a non-dialog artifact: meeting materials, the lawful basis
// statement, ingress provenance. Body is a string or a structured map.
type Attachment struct {
	Type     string         `json:"type"`
	Body     any            `json:"body,omitempty"`
	Encoding string         `json:"encoding,omitempty"`
	Party    *int           `json:"party,omitempty"`
	Dialog   *int           `json:"dialog,omitempty"`
	URL      string         `json:"url,omitempty"`
	Mimetype string         `json:"mimetype,omitempty"`
	Filename string         `json:"filename,omitempty"`
	Start    *time.Time     `json:"start,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Analysis is derived data attached to a dialog, principally a transcript.
type Analysis struct {
	Type     string `json:"type"`
	Dialog   *int   `json:"dialog,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	Spec     string `json:"spec,omitempty"`
	Body     any    `json:"body,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// VCon is the root conversation container.
type VCon struct {
	VCon        string         `json:"vcon"`
	UUID        string         `json:"uuid"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	Parties     []Party        `json:"parties"`
	Dialog      []Dialog       `json:"dialog"`
	Attachments []Attachment   `json:"attachments"`
	Analysis    []Analysis     `json:"analysis"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Clone returns a deep copy of the record. Maps and any-typed bodies are
// copied recursively so the copy shares no mutable state with the original.
func (v *VCon) Clone() *VCon {
	out := &VCon{
		VCon:      v.VCon,
		UUID:      v.UUID,
		CreatedAt: v.CreatedAt,
		Subject:   v.Subject,
		Meta:      cloneMap(v.Meta),
	}
	if v.UpdatedAt != nil {
		t := *v.UpdatedAt
		out.UpdatedAt = &t
	}

	out.Parties = make([]Party, len(v.Parties))
	for i, p := range v.Parties {
		p.Meta = cloneMap(p.Meta)
		out.Parties[i] = p
	}

	out.Dialog = make([]Dialog, len(v.Dialog))
	for i, d := range v.Dialog {
		d.Parties = append([]int(nil), d.Parties...)
		d.Meta = cloneMap(d.Meta)
		out.Dialog[i] = d
	}

	out.Attachments = make([]Attachment, len(v.Attachments))
	for i, a := range v.Attachments {
		a.Body = cloneValue(a.Body)
		a.Meta = cloneMap(a.Meta)
		if a.Party != nil {
			n := *a.Party
			a.Party = &n
		}
		if a.Dialog != nil {
			n := *a.Dialog
			a.Dialog = &n
		}
		if a.Start != nil {
			t := *a.Start
			a.Start = &t
		}
		out.Attachments[i] = a
	}

	out.Analysis = make([]Analysis, len(v.Analysis))
	for i, an := range v.Analysis {
		an.Body = cloneValue(an.Body)
		if an.Dialog != nil {
			n := *an.Dialog
			an.Dialog = &n
		}
		out.Analysis[i] = an
	}

	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = cloneMap(item)
		}
		return out
	default:
		return v
	}
}
