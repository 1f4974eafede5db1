package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	vconerrors "github.com/ietf2vcon/ietf2vcon/pkg/errors"
	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
	"github.com/ietf2vcon/ietf2vcon/pkg/timefmt"
)

// DatatrackerBaseURL is the production IETF Datatracker.
const DatatrackerBaseURL = "https://datatracker.ietf.org"

// Datatracker is a read-only client for the IETF Datatracker API.
// API documentation: https://datatracker.ietf.org/api/
type Datatracker struct {
	httpAPI
}

// NewDatatracker returns a Datatracker client against the production API.
func NewDatatracker(logger logging.Logger) *Datatracker {
	return NewDatatrackerWithURL(DatatrackerBaseURL, logger)
}

// NewDatatrackerWithURL returns a Datatracker client against baseURL.
func NewDatatrackerWithURL(baseURL string, logger logging.Logger) *Datatracker {
	return &Datatracker{httpAPI: newHTTPAPI(strings.TrimSuffix(baseURL, "/"), DefaultTimeout, logger)}
}

// listResponse is the Datatracker's tastypie list envelope.
type listResponse struct {
	Meta struct {
		Next string `json:"next"`
	} `json:"meta"`
	Objects []json.RawMessage `json:"objects"`
}

// getPaginated follows meta.next until the listing is exhausted.
func (d *Datatracker) getPaginated(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(defaultPageLimit))

	var objects []json.RawMessage
	for path != "" {
		var page listResponse
		if err := d.getJSON(ctx, path, params, &page); err != nil {
			return objects, err
		}
		objects = append(objects, page.Objects...)
		path = page.Meta.Next
		params = nil // the next URL carries its own query
	}
	return objects, nil
}

// GetMeeting returns metadata for an IETF meeting by number, or ErrNotFound.
func (d *Datatracker) GetMeeting(ctx context.Context, number int) (*ietf.Meeting, error) {
	var resp struct {
		Objects []struct {
			City     string `json:"city"`
			Country  string `json:"country"`
			Date     string `json:"date"`
			TimeZone string `json:"time_zone"`
		} `json:"objects"`
	}
	params := url.Values{"number": {strconv.Itoa(number)}}
	if err := d.getJSON(ctx, "/api/v1/meeting/meeting/", params, &resp); err != nil {
		return nil, fmt.Errorf("get meeting %d: %w", number, err)
	}
	if len(resp.Objects) == 0 {
		return nil, fmt.Errorf("meeting %d: %w", number, vconerrors.ErrNotFound)
	}

	obj := resp.Objects[0]
	meeting := &ietf.Meeting{
		Number:   number,
		City:     obj.City,
		Country:  obj.Country,
		TimeZone: obj.TimeZone,
	}
	if t, err := parseAPITime(obj.Date); err == nil {
		meeting.StartDate = &t
	}
	return meeting, nil
}

type sessionObject struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// GetGroupSessions returns the scheduled sessions for one working group at a
// meeting, enriched with timeslot and room from the schedule assignment.
func (d *Datatracker) GetGroupSessions(ctx context.Context, meetingNumber int, groupAcronym string) ([]ietf.Session, error) {
	objects, err := d.getPaginated(ctx, "/api/v1/meeting/session/", url.Values{
		"meeting__number": {strconv.Itoa(meetingNumber)},
		"group__acronym":  {groupAcronym},
	})
	if err != nil {
		return nil, fmt.Errorf("get sessions for %s at %d: %w", groupAcronym, meetingNumber, err)
	}

	var sessions []ietf.Session
	for _, raw := range objects {
		var obj sessionObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}

		session := ietf.Session{
			MeetingNumber: meetingNumber,
			GroupAcronym:  groupAcronym,
			SessionID:     strconv.Itoa(obj.ID),
			Name:          obj.Name,
		}
		if obj.Group != "" {
			if name := d.groupName(ctx, obj.Group); name != "" {
				session.Name = name
			}
		}
		d.fillSchedule(ctx, meetingNumber, obj.ID, &session)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// GetMeetingSessions returns all sessions of a meeting as a light listing:
// group acronym and id only, no schedule enrichment.
func (d *Datatracker) GetMeetingSessions(ctx context.Context, meetingNumber int) ([]ietf.Session, error) {
	objects, err := d.getPaginated(ctx, "/api/v1/meeting/session/", url.Values{
		"meeting__number": {strconv.Itoa(meetingNumber)},
	})
	if err != nil {
		return nil, fmt.Errorf("get sessions for meeting %d: %w", meetingNumber, err)
	}

	var sessions []ietf.Session
	for _, raw := range objects {
		var obj sessionObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}

		acronym := "unknown"
		name := obj.Name
		if obj.Group != "" {
			if a, n := d.groupInfo(ctx, obj.Group); a != "" {
				acronym = a
				if n != "" {
					name = n
				}
			}
		}
		sessions = append(sessions, ietf.Session{
			MeetingNumber: meetingNumber,
			GroupAcronym:  acronym,
			SessionID:     strconv.Itoa(obj.ID),
			Name:          name,
		})
	}
	return sessions, nil
}

// GetSessionMaterials returns the materials for a group's session at a
// meeting: the session presentations from the Datatracker plus synthetic
// entries for the HTML agenda page and the collaborative notes.
func (d *Datatracker) GetSessionMaterials(ctx context.Context, meetingNumber int, groupAcronym string) ([]ietf.Material, error) {
	objects, err := d.getPaginated(ctx, "/api/v1/meeting/sessionpresentation/", url.Values{
		"session__meeting__number": {strconv.Itoa(meetingNumber)},
		"session__group__acronym":  {groupAcronym},
	})
	if err != nil {
		d.logger.Warn("session presentation listing failed",
			logging.F("group", groupAcronym), logging.Err(err))
	}

	var materials []ietf.Material
	for _, raw := range objects {
		var item struct {
			Document string `json:"document"`
			Order    int    `json:"order"`
		}
		if err := json.Unmarshal(raw, &item); err != nil || item.Document == "" {
			continue
		}

		var doc struct {
			Name        string `json:"name"`
			Title       string `json:"title"`
			ExternalURL string `json:"external_url"`
		}
		if err := d.getJSON(ctx, item.Document, nil, &doc); err != nil {
			continue
		}

		matType, mimetype := materialKind(doc.Name)
		title := doc.Title
		if title == "" {
			title = doc.Name
		}
		matURL := doc.ExternalURL
		if matURL == "" {
			matURL = fmt.Sprintf("%s/meeting/%d/materials/%s", d.baseURL, meetingNumber, doc.Name)
		}
		filename := doc.Name
		if mimetype == "application/pdf" {
			filename += ".pdf"
		}

		materials = append(materials, ietf.Material{
			Type:     matType,
			Title:    title,
			URL:      matURL,
			Filename: filename,
			Mimetype: mimetype,
			Order:    item.Order,
		})
	}

	upper := strings.ToUpper(groupAcronym)
	materials = append(materials,
		ietf.Material{
			Type:     "agenda",
			Title:    upper + " Agenda",
			URL:      fmt.Sprintf("%s/meeting/%d/agenda/%s/", d.baseURL, meetingNumber, groupAcronym),
			Mimetype: "text/html",
		},
		ietf.Material{
			Type:     "minutes",
			Title:    upper + " Notes",
			URL:      fmt.Sprintf("https://notes.ietf.org/notes-ietf-%d-%s", meetingNumber, groupAcronym),
			Mimetype: "text/markdown",
		},
	)
	return materials, nil
}

// GetGroupChairs returns the current chairs of a working group.
func (d *Datatracker) GetGroupChairs(ctx context.Context, groupAcronym string) ([]ietf.Person, error) {
	var resp struct {
		Objects []struct {
			Person string `json:"person"`
			Email  string `json:"email"`
		} `json:"objects"`
	}
	params := url.Values{
		"group__acronym": {groupAcronym},
		"name__slug":     {"chair"},
		"limit":          {"10"},
	}
	if err := d.getJSON(ctx, "/api/v1/group/role/", params, &resp); err != nil {
		return nil, fmt.Errorf("get chairs for %s: %w", groupAcronym, err)
	}

	var chairs []ietf.Person
	seen := make(map[string]bool)
	for _, role := range resp.Objects {
		if role.Person == "" {
			continue
		}

		var person struct {
			Name string `json:"name"`
		}
		if err := d.getJSON(ctx, role.Person, nil, &person); err != nil || person.Name == "" {
			continue
		}
		if seen[person.Name] {
			continue
		}
		seen[person.Name] = true

		chair := ietf.Person{Name: person.Name, Role: "chair"}
		if role.Email != "" {
			var email struct {
				Address string `json:"address"`
			}
			if err := d.getJSON(ctx, role.Email, nil, &email); err == nil {
				chair.Email = email.Address
			}
		}
		chairs = append(chairs, chair)
	}
	return chairs, nil
}

// MeetechoRecordingURL returns the predictable Meetecho player URL for a
// session, the recording fallback when no YouTube video is found.
func (d *Datatracker) MeetechoRecordingURL(meetingNumber int, groupAcronym string) string {
	return fmt.Sprintf("https://meetings.conf.meetecho.com/ietf%d/?group=%s", meetingNumber, groupAcronym)
}

// groupName fetches the long name of a group resource URI.
func (d *Datatracker) groupName(ctx context.Context, groupURI string) string {
	_, name := d.groupInfo(ctx, groupURI)
	return name
}

func (d *Datatracker) groupInfo(ctx context.Context, groupURI string) (acronym, name string) {
	var group struct {
		Acronym string `json:"acronym"`
		Name    string `json:"name"`
	}
	if err := d.getJSON(ctx, groupURI, nil, &group); err != nil {
		return "", ""
	}
	return group.Acronym, group.Name
}

// fillSchedule resolves the session's timeslot assignment into start time,
// duration and room. Schedule lookups are best effort.
func (d *Datatracker) fillSchedule(ctx context.Context, meetingNumber, sessionID int, session *ietf.Session) {
	var assignments struct {
		Objects []struct {
			Timeslot string `json:"timeslot"`
		} `json:"objects"`
	}
	params := url.Values{
		"session":                  {strconv.Itoa(sessionID)},
		"schedule__meeting__number": {strconv.Itoa(meetingNumber)},
		"limit":                    {"1"},
	}
	if err := d.getJSON(ctx, "/api/v1/meeting/schedtimesessassignment/", params, &assignments); err != nil {
		d.logger.Debug("no schedule assignment", logging.F("session", sessionID), logging.Err(err))
		return
	}
	if len(assignments.Objects) == 0 || assignments.Objects[0].Timeslot == "" {
		return
	}

	var timeslot struct {
		Time     string `json:"time"`
		Duration string `json:"duration"`
		Location string `json:"location"`
	}
	if err := d.getJSON(ctx, assignments.Objects[0].Timeslot, nil, &timeslot); err != nil {
		return
	}

	if t, err := parseAPITime(timeslot.Time); err == nil {
		session.StartTime = &t
	}
	if secs, ok := timefmt.ParseClockDuration(timeslot.Duration); ok {
		session.DurationSeconds = secs
	}
	if timeslot.Location != "" {
		var location struct {
			Name string `json:"name"`
		}
		if err := d.getJSON(ctx, timeslot.Location, nil, &location); err == nil {
			session.Room = location.Name
		}
	}
}

// materialKind infers the material type and MIME type from a document name.
func materialKind(docName string) (matType, mimetype string) {
	switch {
	case strings.Contains(docName, "slides"):
		return "slides", "application/pdf"
	case strings.Contains(docName, "agenda"):
		return "agenda", "application/pdf"
	case strings.Contains(docName, "minutes"):
		return "minutes", "application/pdf"
	case strings.Contains(docName, "recording"):
		return "recording", "text/html"
	case strings.Contains(docName, "chatlog"):
		return "chatlog", "text/plain"
	case strings.Contains(docName, "bluesheets"):
		return "bluesheets", "application/pdf"
	default:
		return "document", "application/pdf"
	}
}

// parseAPITime accepts the date and datetime shapes the Datatracker emits.
func parseAPITime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time: %s", s)
}
