package vcon

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcript"
)

func testSession() *ietf.Session {
	start := time.Date(2025, 7, 21, 9, 30, 0, 0, time.UTC)
	return &ietf.Session{
		MeetingNumber:   123,
		GroupAcronym:    "vcon",
		SessionID:       "sess-1",
		StartTime:       &start,
		DurationSeconds: 7200,
		Room:            "Continental 4",
	}
}

func TestNewBuilder(t *testing.T) {
	b := NewBuilder()
	v := b.Build()

	assert.Equal(t, "0.0.1", v.VCon)
	assert.Regexp(t, `^[0-9a-f-]{36}$`, v.UUID)
	assert.False(t, v.CreatedAt.IsZero())
	assert.NotNil(t, v.Parties)
	assert.NotNil(t, v.Dialog)
}

func TestAddPartyDedup(t *testing.T) {
	b := NewBuilder()

	first := b.AddParty("Alice Chair", "alice@example.org", "chair", nil)
	second := b.AddParty("Alice Chair", "alice@example.org", "chair", nil)

	assert.Equal(t, first, second)
	assert.Len(t, b.Build().Parties, 1)

	// Without an email the name is the identity key.
	third := b.AddParty("Bob Scribe", "", "attendee", nil)
	fourth := b.AddParty("Bob Scribe", "", "attendee", nil)
	assert.Equal(t, third, fourth)
	assert.Len(t, b.Build().Parties, 2)
}

func TestAddPartyDistinctKeys(t *testing.T) {
	b := NewBuilder()

	a := b.AddParty("Alice", "alice@example.org", "chair", nil)
	c := b.AddParty("Alice", "alice@ietf.org", "chair", nil)

	assert.NotEqual(t, a, c)
	assert.Len(t, b.Build().Parties, 2)
}

func TestSetMeetingMetadata(t *testing.T) {
	meeting := &ietf.Meeting{Number: 123, City: "Madrid", Country: "ES"}
	b := NewBuilder()
	b.SetMeetingMetadata(meeting, testSession())

	v := b.Build()
	assert.Equal(t, "IETF 123 - VCON Working Group Session", v.Subject)

	require.Len(t, v.Attachments, 1)
	att := v.Attachments[0]
	assert.Equal(t, "meeting_metadata", att.Type)

	body, ok := att.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 123, body["ietf_meeting_number"])
	assert.Equal(t, "Madrid, ES", body["location"])
	assert.Equal(t, "vcon", body["working_group"])
}

func TestAddVideoDialogDefaultsToAllParties(t *testing.T) {
	b := NewBuilder()
	b.AddParty("Alice", "alice@example.org", "chair", nil)
	b.AddAttendeesParty(0)

	video := &ietf.VideoRef{VideoID: "abc123", Title: "IETF 123 VCON", URL: "https://www.youtube.com/watch?v=abc123"}
	idx := b.AddVideoDialog(video, testSession(), nil)

	v := b.Build()
	require.Equal(t, 0, idx)
	require.Len(t, v.Dialog, 1)

	d := v.Dialog[0]
	assert.Equal(t, DialogVideo, d.Type)
	assert.Equal(t, []int{0, 1}, d.Parties)
	assert.Equal(t, "video/mp4", d.Mimetype)
	assert.Equal(t, video.URL, d.URL)
	assert.Equal(t, "youtube", d.Meta["source"])
	assert.Equal(t, 7200, d.Duration)
}

func TestAddVideoDialogInline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.mp4")
	content := []byte("not really a video")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	b := NewBuilder()
	idx, err := b.AddVideoDialogInline(path, testSession(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	d := b.Build().Dialog[0]
	assert.Equal(t, "session.mp4", d.Filename)
	assert.Equal(t, "base64", d.Encoding)
	assert.Equal(t, "SHA-256", d.Alg)
	assert.Len(t, d.Signature, 64)

	decoded, err := base64.StdEncoding.DecodeString(d.Body)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestAddVideoDialogInlineMissingFile(t *testing.T) {
	b := NewBuilder()
	idx, err := b.AddVideoDialogInline("/nonexistent/video.mp4", testSession(), nil)

	assert.Error(t, err)
	assert.Equal(t, -1, idx)
	assert.Empty(t, b.Build().Dialog)
}

func TestAddChatDialogEmpty(t *testing.T) {
	b := NewBuilder()
	idx := b.AddChatDialog(nil, testSession(), true)

	assert.Equal(t, -1, idx)
	assert.Empty(t, b.Build().Dialog)
}

func TestAddChatDialog(t *testing.T) {
	ts := time.Date(2025, 7, 21, 9, 35, 0, 0, time.UTC)
	messages := []ietf.ChatMessage{
		{Timestamp: ts, Sender: "Alice", Content: "agenda bash", Stream: "vcon"},
		{Timestamp: ts.Add(time.Minute), Sender: "Bob", Content: "+1"},
	}

	b := NewBuilder()
	b.AddParty("Alice", "alice@example.org", "chair", nil)
	idx := b.AddChatDialog(messages, testSession(), true)

	v := b.Build()
	require.Equal(t, 0, idx)
	d := v.Dialog[0]
	assert.Equal(t, DialogText, d.Type)
	assert.Equal(t, ts, d.Start)
	assert.Equal(t, "text/plain", d.Mimetype)
	assert.Contains(t, d.Body, "Alice: agenda bash")
	assert.Equal(t, 2, d.Meta["message_count"])
	assert.Equal(t, "zulip", d.Meta["source"])
}

func TestAddChatDialogJSON(t *testing.T) {
	messages := []ietf.ChatMessage{
		{Timestamp: time.Now().UTC(), Sender: "Alice", Content: "hello"},
	}

	b := NewBuilder()
	idx := b.AddChatDialog(messages, testSession(), false)

	d := b.Build().Dialog[idx]
	assert.Equal(t, "application/json", d.Mimetype)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(d.Body), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Alice", decoded[0]["sender"])
}

func TestAddMaterialAttachmentURL(t *testing.T) {
	material := ietf.Material{
		Type:     "slides",
		Title:    "Chair Slides",
		URL:      "https://datatracker.ietf.org/meeting/123/materials/slides-123-vcon-chair",
		Mimetype: "application/pdf",
	}

	b := NewBuilder()
	b.AddMaterialAttachment(material, nil, false)

	att := b.Build().Attachments[0]
	assert.Equal(t, "slides", att.Type)
	assert.Equal(t, material.URL, att.URL)
	assert.Nil(t, att.Body)
}

func TestAddMaterialAttachmentInline(t *testing.T) {
	material := ietf.Material{Type: "agenda", Title: "Agenda", URL: "https://example.org/agenda"}
	content := []byte("1. Welcome\n2. Drafts")

	b := NewBuilder()
	b.AddMaterialAttachment(material, content, true)

	att := b.Build().Attachments[0]
	assert.Equal(t, "base64", att.Encoding)
	assert.Empty(t, att.URL)
	assert.NotEmpty(t, att.Meta["sha256"])

	body, ok := att.Body.(string)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(body)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestAddTranscript(t *testing.T) {
	conf := 0.98
	speaker := 0
	result := &transcript.Result{
		Text: "hello world",
		Segments: []transcript.Segment{
			{ID: 0, Start: 0, End: 2.5, Text: "hello", Speaker: &speaker, Confidence: &conf},
			{ID: 1, Start: 2.5, End: 5, Text: "world"},
		},
		Language: "en",
		Duration: 5,
		Provider: "whisper",
		Model:    "large-v3",
	}

	b := NewBuilder()
	b.AddTranscript(result, 0)

	v := b.Build()
	require.Len(t, v.Analysis, 1)
	an := v.Analysis[0]
	assert.Equal(t, "wtf_transcription", an.Type)
	assert.Equal(t, "draft-howe-wtf-transcription-00", an.Spec)
	assert.Equal(t, "whisper", an.Vendor)
	require.NotNil(t, an.Dialog)
	assert.Equal(t, 0, *an.Dialog)

	body := an.Body.(map[string]any)
	segments := body["segments"].([]any)
	require.Len(t, segments, 2)

	first := segments[0].(map[string]any)
	assert.Equal(t, 0.98, first["confidence"])
	assert.Equal(t, 0, first["speaker"])

	// Absent speaker/confidence are omitted, never null.
	second := segments[1].(map[string]any)
	_, hasSpeaker := second["speaker"]
	_, hasConfidence := second["confidence"]
	assert.False(t, hasSpeaker)
	assert.False(t, hasConfidence)

	meta := body["metadata"].(map[string]any)
	assert.Equal(t, 2, meta["segment_count"])
	assert.Equal(t, "whisper", meta["provider"])
}

func TestAddIETFNoteWell(t *testing.T) {
	b := NewBuilder()
	b.AddIETFNoteWell()

	v := b.Build()
	require.Len(t, v.Attachments, 1)
	att := v.Attachments[0]
	assert.Equal(t, "lawful_basis", att.Type)
	assert.Equal(t, "draft-howe-vcon-lawful-basis-00", att.Meta["spec"])

	body := att.Body.(map[string]any)
	assert.Equal(t, "legitimate_interests", body["lawful_basis"])
	assert.Equal(t, "IETF Note Well", body["terms_of_service_name"])
	assert.Equal(t, "https://www.ietf.org/about/note-well/", body["terms_of_service"])
	assert.Equal(t, "IETF", body["jurisdiction"])

	grants := body["purpose_grants"].([]any)
	require.Len(t, grants, 5)
	purposes := make(map[string]string)
	for _, raw := range grants {
		g := raw.(map[string]any)
		purposes[g["purpose"].(string)] = g["status"].(string)
	}
	for _, purpose := range []string{"recording", "transcription", "publication", "archival", "analysis"} {
		assert.Equal(t, "granted", purposes[purpose], purpose)
	}
}

func TestBuildSnapshotIsolation(t *testing.T) {
	b := NewBuilder()
	b.AddParty("Alice", "alice@example.org", "chair", nil)
	b.AddIngressInfo("ietf2vcon", map[string]any{"meeting": 123})

	first := b.Build()

	b.AddParty("Bob", "bob@example.org", "presenter", nil)
	first.Attachments[0].Body.(map[string]any)["meeting"] = 999

	second := b.Build()

	assert.Len(t, first.Parties, 1)
	assert.Len(t, second.Parties, 2)
	assert.Equal(t, 123, second.Attachments[0].Body.(map[string]any)["meeting"])
}

func TestBuilderRoundTripValidates(t *testing.T) {
	meeting := &ietf.Meeting{Number: 123, City: "Madrid", Country: "ES"}
	session := testSession()

	b := NewBuilder()
	b.SetMeetingMetadata(meeting, session)
	b.AddIngressInfo("ietf2vcon", map[string]any{"ietf_meeting": 123})
	b.AddIETFNoteWell()
	b.AddParty("Alice Chair", "alice@example.org", "chair", nil)
	b.AddAttendeesParty(150)

	video := &ietf.VideoRef{VideoID: "abc123", Title: "IETF 123 VCON", URL: "https://www.youtube.com/watch?v=abc123"}
	dialogIdx := b.AddVideoDialog(video, session, nil)

	b.AddMaterialAttachment(ietf.Material{
		Type: "slides", Title: "Chair Slides",
		URL: "https://datatracker.ietf.org/meeting/123/materials/slides", Mimetype: "application/pdf",
	}, nil, false)

	b.AddChatDialog([]ietf.ChatMessage{
		{Timestamp: session.StartTime.Add(5 * time.Minute), Sender: "Bob", Content: "note taking"},
	}, session, true)

	b.AddTranscript(&transcript.Result{
		Text:     "welcome to the session",
		Segments: []transcript.Segment{{ID: 0, Start: 0, End: 3, Text: "welcome to the session"}},
		Language: "en",
		Duration: 3,
		Provider: "youtube",
		Model:    "auto-generated",
	}, dialogIdx)

	raw, err := json.Marshal(b.Build())
	require.NoError(t, err)

	report := (&Validator{}).Validate(raw)
	assert.Empty(t, report.Errors, "builder output must validate clean: %v", report.Errors)
}
