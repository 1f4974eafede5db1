package vcon

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ietf2vcon/ietf2vcon/pkg/buildinfo"
	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcript"
)

// PurposeGrant is one purpose permission inside a lawful basis statement.
type PurposeGrant struct {
	Purpose string `json:"purpose"`
	Status  string `json:"status"`
}

// LawfulBasis describes the legal foundation for processing the conversation,
// following the lawful-basis vCon extension draft.
type LawfulBasis struct {
	Basis              string
	PurposeGrants      []PurposeGrant
	TermsOfService     string
	TermsOfServiceName string
	Jurisdiction       string
	Controller         string
	Expiration         *time.Time
	Notes              string
}

// Builder accumulates parties, dialogs, attachments and analyses into one
// vCon record. Parties are deduplicated by identity key (email when present,
// name otherwise); each conversion task owns one Builder end to end, the
// builder is not safe for concurrent use.
type Builder struct {
	vcon     *VCon
	partyIdx map[string]int
}

// NewBuilder returns a Builder seeded with a fresh UUID and creation time.
func NewBuilder() *Builder {
	return &Builder{
		vcon: &VCon{
			VCon:        Version,
			UUID:        uuid.NewString(),
			CreatedAt:   time.Now().UTC(),
			Parties:     []Party{},
			Dialog:      []Dialog{},
			Attachments: []Attachment{},
			Analysis:    []Analysis{},
		},
		partyIdx: make(map[string]int),
	}
}

// SetSubject sets the record subject.
func (b *Builder) SetSubject(subject string) *Builder {
	b.vcon.Subject = subject
	return b
}

// SetMeetingMetadata sets the subject from the meeting and session and
// records session details in a meeting_metadata attachment.
func (b *Builder) SetMeetingMetadata(meeting *ietf.Meeting, session *ietf.Session) *Builder {
	b.vcon.Subject = fmt.Sprintf("IETF %d - %s Working Group Session",
		meeting.Number, strings.ToUpper(session.GroupAcronym))

	body := map[string]any{
		"ietf_meeting_number": meeting.Number,
		"working_group":       session.GroupAcronym,
		"session_id":          session.SessionID,
	}
	if meeting.City != "" {
		body["location"] = fmt.Sprintf("%s, %s", meeting.City, meeting.Country)
	}
	if session.Room != "" {
		body["room"] = session.Room
	}
	if session.StartTime != nil {
		body["start_time"] = session.StartTime.UTC().Format(time.RFC3339)
	}
	if session.DurationSeconds > 0 {
		body["duration_seconds"] = session.DurationSeconds
	}

	b.vcon.Attachments = append(b.vcon.Attachments, Attachment{
		Type:     AttachmentMeetingMetadata,
		Encoding: "none",
		Body:     body,
	})
	return b
}

// AddParty adds a party and returns its index. A party with the same
// identity key (email when given, name otherwise) is added only once; repeat
// calls return the existing index.
func (b *Builder) AddParty(name, email, role string, meta map[string]any) int {
	key := email
	if key == "" {
		key = name
	}
	if idx, ok := b.partyIdx[key]; ok {
		return idx
	}

	idx := len(b.vcon.Parties)
	b.vcon.Parties = append(b.vcon.Parties, Party{
		Name:   name,
		Mailto: email,
		Role:   role,
		Meta:   meta,
	})
	b.partyIdx[key] = idx
	return idx
}

// AddPersons adds each person as a party and returns their indices.
func (b *Builder) AddPersons(persons []ietf.Person) []int {
	indices := make([]int, 0, len(persons))
	for _, p := range persons {
		var meta map[string]any
		if p.Affiliation != "" {
			meta = map[string]any{"affiliation": p.Affiliation}
		}
		indices = append(indices, b.AddParty(p.Name, p.Email, p.Role, meta))
	}
	return indices
}

// AddAttendeesParty adds a generic party representing everyone present.
// count, when positive, is recorded in the party meta.
func (b *Builder) AddAttendeesParty(count int) int {
	var meta map[string]any
	if count > 0 {
		meta = map[string]any{"count": count}
	}
	return b.AddParty("IETF Attendees", "", "attendee", meta)
}

// allPartyIndices defaults dialog attribution to everyone currently known.
func (b *Builder) allPartyIndices() []int {
	indices := make([]int, len(b.vcon.Parties))
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func (b *Builder) dialogStart(session *ietf.Session) time.Time {
	if session != nil && session.StartTime != nil {
		return session.StartTime.UTC()
	}
	return time.Now().UTC()
}

// AddVideoDialog adds the session recording as a video dialog referencing
// the YouTube source. When partyIndices is nil every known party is attached.
func (b *Builder) AddVideoDialog(video *ietf.VideoRef, session *ietf.Session, partyIndices []int) int {
	if partyIndices == nil {
		partyIndices = b.allPartyIndices()
	}
	duration := video.DurationSeconds
	if duration == 0 {
		duration = session.DurationSeconds
	}

	dialog := Dialog{
		Type:     DialogVideo,
		Start:    b.dialogStart(session),
		Duration: duration,
		Parties:  partyIndices,
		Mimetype: "video/mp4",
		URL:      video.URL,
		Meta: map[string]any{
			"source":        "youtube",
			"video_id":      video.VideoID,
			"title":         video.Title,
			"ietf_meeting":  session.MeetingNumber,
			"working_group": session.GroupAcronym,
		},
	}

	idx := len(b.vcon.Dialog)
	b.vcon.Dialog = append(b.vcon.Dialog, dialog)
	return idx
}

// AddVideoDialogFromURL adds a video dialog pointing at an arbitrary
// recording URL (YouTube or Meetecho).
func (b *Builder) AddVideoDialogFromURL(url string, session *ietf.Session, mimetype string, partyIndices []int) int {
	if partyIndices == nil {
		partyIndices = b.allPartyIndices()
	}
	if mimetype == "" {
		mimetype = "video/mp4"
	}

	dialog := Dialog{
		Type:     DialogVideo,
		Start:    b.dialogStart(session),
		Duration: session.DurationSeconds,
		Parties:  partyIndices,
		Mimetype: mimetype,
		URL:      url,
		Meta: map[string]any{
			"ietf_meeting":  session.MeetingNumber,
			"working_group": session.GroupAcronym,
		},
	}

	idx := len(b.vcon.Dialog)
	b.vcon.Dialog = append(b.vcon.Dialog, dialog)
	return idx
}

// AddVideoDialogInline embeds the video file as a base64 body with a SHA-256
// integrity hash. This can make the record very large; no size limit is
// enforced here.
func (b *Builder) AddVideoDialogInline(videoPath string, session *ietf.Session, partyIndices []int) (int, error) {
	content, err := os.ReadFile(videoPath)
	if err != nil {
		return -1, fmt.Errorf("read video file: %w", err)
	}
	if partyIndices == nil {
		partyIndices = b.allPartyIndices()
	}

	sum := sha256.Sum256(content)
	dialog := Dialog{
		Type:      DialogVideo,
		Start:     b.dialogStart(session),
		Duration:  session.DurationSeconds,
		Parties:   partyIndices,
		Mimetype:  "video/mp4",
		Filename:  filepath.Base(videoPath),
		Body:      base64.StdEncoding.EncodeToString(content),
		Encoding:  "base64",
		Alg:       "SHA-256",
		Signature: hex.EncodeToString(sum[:]),
	}

	idx := len(b.vcon.Dialog)
	b.vcon.Dialog = append(b.vcon.Dialog, dialog)
	return idx, nil
}

// AddChatDialog adds the session chat log as a text dialog referencing all
// known parties. Returns -1 without adding anything when messages is empty.
// The dialog start is the first message's timestamp, falling back to the
// session start, then the current time.
func (b *Builder) AddChatDialog(messages []ietf.ChatMessage, session *ietf.Session, asText bool) int {
	if len(messages) == 0 {
		return -1
	}

	start := messages[0].Timestamp.UTC()
	if start.IsZero() {
		start = b.dialogStart(session)
	}

	body := ""
	mimetype := "text/plain"
	if asText {
		body = ietf.ChatText(messages)
	} else {
		rendered, err := ietf.ChatJSON(messages)
		if err != nil {
			body = ietf.ChatText(messages)
		} else {
			body = rendered
			mimetype = "application/json"
		}
	}

	dialog := Dialog{
		Type:     DialogText,
		Start:    start,
		Parties:  b.allPartyIndices(),
		Mimetype: mimetype,
		Body:     body,
		Encoding: "none",
		Meta: map[string]any{
			"source":        "zulip",
			"stream":        messages[0].Stream,
			"message_count": len(messages),
			"ietf_meeting":  session.MeetingNumber,
			"working_group": session.GroupAcronym,
		},
	}

	idx := len(b.vcon.Dialog)
	b.vcon.Dialog = append(b.vcon.Dialog, dialog)
	return idx
}

// AddMaterialAttachment adds one meeting material. With inline true and
// content supplied the content is embedded base64 with a SHA-256 hash in
// meta; otherwise only the external URL is stored, never both.
func (b *Builder) AddMaterialAttachment(material ietf.Material, content []byte, inline bool) *Builder {
	att := Attachment{
		Type:     material.Type,
		Mimetype: material.Mimetype,
		Filename: material.Filename,
		Meta: map[string]any{
			"title": material.Title,
			"order": material.Order,
		},
	}

	if inline && len(content) > 0 {
		sum := sha256.Sum256(content)
		att.Body = base64.StdEncoding.EncodeToString(content)
		att.Encoding = "base64"
		att.Meta["sha256"] = hex.EncodeToString(sum[:])
	} else {
		att.URL = material.URL
	}

	b.vcon.Attachments = append(b.vcon.Attachments, att)
	return b
}

// MaterialFetcher loads raw material content for inline embedding.
type MaterialFetcher interface {
	MaterialContent(material ietf.Material) ([]byte, error)
}

// AddMaterials adds each material as an attachment. With inline true and a
// fetcher, content is downloaded and embedded; a fetch failure degrades that
// material to a URL reference.
func (b *Builder) AddMaterials(materials []ietf.Material, inline bool, fetcher MaterialFetcher) *Builder {
	for _, m := range materials {
		var content []byte
		if inline && fetcher != nil {
			if data, err := fetcher.MaterialContent(m); err == nil {
				content = data
			}
		}
		b.AddMaterialAttachment(m, content, inline)
	}
	return b
}

// AddTranscript wraps a normalized transcript into a wtf_transcription
// analysis referencing the given dialog.
func (b *Builder) AddTranscript(result *transcript.Result, dialogIndex int) *Builder {
	b.vcon.Analysis = append(b.vcon.Analysis, TranscriptAnalysis(result, dialogIndex))
	return b
}

// AddAnalysis adds generic analysis data. dialogIndex < 0 means the analysis
// is not attached to a specific dialog.
func (b *Builder) AddAnalysis(analysisType string, body any, dialogIndex int, vendor string) *Builder {
	analysis := Analysis{
		Type:     analysisType,
		Vendor:   vendor,
		Body:     body,
		Encoding: "none",
	}
	if dialogIndex >= 0 {
		analysis.Dialog = &dialogIndex
	}
	b.vcon.Analysis = append(b.vcon.Analysis, analysis)
	return b
}

// AddIngressInfo records where and how this record was produced.
func (b *Builder) AddIngressInfo(source string, extra map[string]any) *Builder {
	body := map[string]any{
		"source":            source,
		"converter_version": buildinfo.Version,
		"converted_at":      time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		body[k] = v
	}

	b.vcon.Attachments = append(b.vcon.Attachments, Attachment{
		Type:     AttachmentIngressInfo,
		Encoding: "none",
		Body:     body,
	})
	return b
}

// AddLawfulBasis appends a lawful_basis attachment documenting the legal
// foundation for processing the conversation.
func (b *Builder) AddLawfulBasis(basis LawfulBasis) *Builder {
	body := map[string]any{
		"lawful_basis": basis.Basis,
	}
	if len(basis.PurposeGrants) > 0 {
		grants := make([]any, len(basis.PurposeGrants))
		for i, g := range basis.PurposeGrants {
			grants[i] = map[string]any{"purpose": g.Purpose, "status": g.Status}
		}
		body["purpose_grants"] = grants
	}
	if basis.TermsOfService != "" {
		body["terms_of_service"] = basis.TermsOfService
	}
	if basis.TermsOfServiceName != "" {
		body["terms_of_service_name"] = basis.TermsOfServiceName
	}
	if basis.Jurisdiction != "" {
		body["jurisdiction"] = basis.Jurisdiction
	}
	if basis.Controller != "" {
		body["controller"] = basis.Controller
	}
	if basis.Expiration != nil {
		body["expiration"] = basis.Expiration.UTC().Format(time.RFC3339)
	}
	if basis.Notes != "" {
		body["notes"] = basis.Notes
	}

	b.vcon.Attachments = append(b.vcon.Attachments, Attachment{
		Type:     AttachmentLawfulBasis,
		Encoding: "none",
		Body:     body,
		Meta:     map[string]any{"spec": SpecLawfulBasis},
	})
	return b
}

// AddIETFNoteWell records the IETF Note Well as the lawful basis for
// recording and processing the session. Participation in IETF meetings
// constitutes agreement to the Note Well, which permits recording,
// transcription and public archival of proceedings (BCP 78, BCP 79).
func (b *Builder) AddIETFNoteWell() *Builder {
	return b.AddLawfulBasis(LawfulBasis{
		Basis: "legitimate_interests",
		PurposeGrants: []PurposeGrant{
			{Purpose: "recording", Status: "granted"},
			{Purpose: "transcription", Status: "granted"},
			{Purpose: "publication", Status: "granted"},
			{Purpose: "archival", Status: "granted"},
			{Purpose: "analysis", Status: "granted"},
		},
		TermsOfService:     "https://www.ietf.org/about/note-well/",
		TermsOfServiceName: "IETF Note Well",
		Jurisdiction:       "IETF",
		Controller:         "Internet Engineering Task Force (IETF)",
		Notes: "Participation in IETF meetings constitutes agreement to the Note Well, " +
			"which permits recording, transcription, and public archival of proceedings. " +
			"See also BCP 78 (RFC 5378) and BCP 79 (RFC 8179) for IPR policies.",
	})
}

// Build stamps the updated timestamp and returns a deep-copy snapshot of the
// accumulated record. The builder stays usable afterwards; further calls
// never mutate a previously returned record.
func (b *Builder) Build() *VCon {
	now := time.Now().UTC()
	b.vcon.UpdatedAt = &now
	return b.vcon.Clone()
}
