package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vconerrors "github.com/ietf2vcon/ietf2vcon/pkg/errors"
)

func testDatatracker(t *testing.T, handler http.Handler) *Datatracker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDatatrackerWithURL(srv.URL, nil)
}

func TestGetMeeting(t *testing.T) {
	dt := testDatatracker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/meeting/meeting/", r.URL.Path)
		assert.Equal(t, "123", r.URL.Query().Get("number"))
		fmt.Fprint(w, `{"objects":[{"city":"Madrid","country":"ES","date":"2025-07-19","time_zone":"Europe/Madrid"}]}`)
	}))

	meeting, err := dt.GetMeeting(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, 123, meeting.Number)
	assert.Equal(t, "Madrid", meeting.City)
	assert.Equal(t, "ES", meeting.Country)
	assert.Equal(t, "Europe/Madrid", meeting.TimeZone)
	require.NotNil(t, meeting.StartDate)
	assert.Equal(t, "2025-07-19", meeting.StartDate.Format("2006-01-02"))
}

func TestGetMeetingNotFound(t *testing.T) {
	dt := testDatatracker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"objects":[]}`)
	}))

	_, err := dt.GetMeeting(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, vconerrors.IsNotFound(err))
}

func TestGetGroupSessions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/meeting/session/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "123", r.URL.Query().Get("meeting__number"))
		assert.Equal(t, "vcon", r.URL.Query().Get("group__acronym"))
		fmt.Fprint(w, `{"meta":{"next":""},"objects":[{"id":5501,"name":"","group":"/api/v1/group/group/42/"}]}`)
	})
	mux.HandleFunc("/api/v1/group/group/42/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"acronym":"vcon","name":"Virtualized Conversations"}`)
	})
	mux.HandleFunc("/api/v1/meeting/schedtimesessassignment/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5501", r.URL.Query().Get("session"))
		fmt.Fprint(w, `{"objects":[{"timeslot":"/api/v1/meeting/timeslot/901/"}]}`)
	})
	mux.HandleFunc("/api/v1/meeting/timeslot/901/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"time":"2025-07-21T09:30:00","duration":"02:00:00","location":"/api/v1/meeting/room/7/"}`)
	})
	mux.HandleFunc("/api/v1/meeting/room/7/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Grand Ballroom"}`)
	})
	dt := testDatatracker(t, mux)

	sessions, err := dt.GetGroupSessions(context.Background(), 123, "vcon")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.Equal(t, 123, s.MeetingNumber)
	assert.Equal(t, "vcon", s.GroupAcronym)
	assert.Equal(t, "5501", s.SessionID)
	assert.Equal(t, "Virtualized Conversations", s.Name)
	require.NotNil(t, s.StartTime)
	assert.Equal(t, 9, s.StartTime.Hour())
	assert.Equal(t, 7200, s.DurationSeconds)
	assert.Equal(t, "Grand Ballroom", s.Room)
}

func TestGetGroupSessionsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/meeting/session/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "100" {
			fmt.Fprint(w, `{"meta":{"next":""},"objects":[{"id":2,"name":"Second","group":""}]}`)
			return
		}
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"meta":{"next":"/api/v1/meeting/session/?offset=100"},"objects":[{"id":1,"name":"First","group":""}]}`)
	})
	mux.HandleFunc("/api/v1/meeting/schedtimesessassignment/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"objects":[]}`)
	})
	dt := testDatatracker(t, mux)

	sessions, err := dt.GetGroupSessions(context.Background(), 123, "vcon")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "1", sessions[0].SessionID)
	assert.Equal(t, "2", sessions[1].SessionID)
}

func TestGetSessionMaterials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/meeting/sessionpresentation/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta":{"next":""},"objects":[
			{"document":"/api/v1/doc/document/slides-123-vcon-update/","order":1},
			{"document":"/api/v1/doc/document/chatlog-123-vcon/","order":2}
		]}`)
	})
	mux.HandleFunc("/api/v1/doc/document/slides-123-vcon-update/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"slides-123-vcon-update","title":"Protocol Update","external_url":""}`)
	})
	mux.HandleFunc("/api/v1/doc/document/chatlog-123-vcon/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"chatlog-123-vcon","title":"","external_url":"https://example.org/chatlog.txt"}`)
	})
	dt := testDatatracker(t, mux)

	materials, err := dt.GetSessionMaterials(context.Background(), 123, "vcon")
	require.NoError(t, err)
	require.Len(t, materials, 4)

	slides := materials[0]
	assert.Equal(t, "slides", slides.Type)
	assert.Equal(t, "Protocol Update", slides.Title)
	assert.Equal(t, "application/pdf", slides.Mimetype)
	assert.Equal(t, "slides-123-vcon-update.pdf", slides.Filename)
	assert.Contains(t, slides.URL, "/meeting/123/materials/slides-123-vcon-update")

	chatlog := materials[1]
	assert.Equal(t, "chatlog", chatlog.Type)
	assert.Equal(t, "chatlog-123-vcon", chatlog.Title)
	assert.Equal(t, "https://example.org/chatlog.txt", chatlog.URL)
	assert.Equal(t, "text/plain", chatlog.Mimetype)

	agenda := materials[2]
	assert.Equal(t, "agenda", agenda.Type)
	assert.Equal(t, "VCON Agenda", agenda.Title)
	assert.Contains(t, agenda.URL, "/meeting/123/agenda/vcon/")
	assert.Equal(t, "text/html", agenda.Mimetype)

	notes := materials[3]
	assert.Equal(t, "minutes", notes.Type)
	assert.Equal(t, "https://notes.ietf.org/notes-ietf-123-vcon", notes.URL)
	assert.Equal(t, "text/markdown", notes.Mimetype)
}

func TestGetGroupChairs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/group/role/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chair", r.URL.Query().Get("name__slug"))
		fmt.Fprint(w, `{"objects":[
			{"person":"/api/v1/person/person/1/","email":"/api/v1/person/email/a@example.org/"},
			{"person":"/api/v1/person/person/1/","email":"/api/v1/person/email/a@example.org/"},
			{"person":"/api/v1/person/person/2/","email":""}
		]}`)
	})
	mux.HandleFunc("/api/v1/person/person/1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Alice Chair"}`)
	})
	mux.HandleFunc("/api/v1/person/person/2/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Bob Chair"}`)
	})
	mux.HandleFunc("/api/v1/person/email/a@example.org/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"address":"a@example.org"}`)
	})
	dt := testDatatracker(t, mux)

	chairs, err := dt.GetGroupChairs(context.Background(), "vcon")
	require.NoError(t, err)
	require.Len(t, chairs, 2)
	assert.Equal(t, "Alice Chair", chairs[0].Name)
	assert.Equal(t, "a@example.org", chairs[0].Email)
	assert.Equal(t, "chair", chairs[0].Role)
	assert.Equal(t, "Bob Chair", chairs[1].Name)
	assert.Empty(t, chairs[1].Email)
}

func TestMeetechoRecordingURL(t *testing.T) {
	dt := NewDatatracker(nil)
	assert.Equal(t, "https://meetings.conf.meetecho.com/ietf123/?group=vcon",
		dt.MeetechoRecordingURL(123, "vcon"))
}

func TestMaterialKind(t *testing.T) {
	tests := []struct {
		docName  string
		wantType string
		wantMime string
	}{
		{"slides-123-vcon-update", "slides", "application/pdf"},
		{"agenda-123-vcon", "agenda", "application/pdf"},
		{"minutes-123-vcon", "minutes", "application/pdf"},
		{"recording-123-vcon-1", "recording", "text/html"},
		{"chatlog-123-vcon-1", "chatlog", "text/plain"},
		{"bluesheets-123-vcon", "bluesheets", "application/pdf"},
		{"draft-ietf-vcon-core", "document", "application/pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.docName, func(t *testing.T) {
			gotType, gotMime := materialKind(tt.docName)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantMime, gotMime)
		})
	}
}
