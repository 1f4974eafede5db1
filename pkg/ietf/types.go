// Package ietf holds the domain types shared between the external
// collaborators (Datatracker, YouTube, Zulip) and the vCon builder.
package ietf

import "time"

// Meeting is IETF meeting metadata from the Datatracker.
type Meeting struct {
	Number    int        `json:"number"`
	City      string     `json:"city,omitempty"`
	Country   string     `json:"country,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	TimeZone  string     `json:"time_zone,omitempty"`
}

// Session is one working group session at an IETF meeting.
type Session struct {
	MeetingNumber   int        `json:"meeting_number"`
	GroupAcronym    string     `json:"group_acronym"`
	SessionID       string     `json:"session_id"`
	Name            string     `json:"name,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	DurationSeconds int        `json:"duration_seconds,omitempty"`
	Room            string     `json:"room,omitempty"`
}

// EndTime returns the scheduled end of the session, or nil when either the
// start time or the duration is unknown.
func (s *Session) EndTime() *time.Time {
	if s.StartTime == nil || s.DurationSeconds <= 0 {
		return nil
	}
	end := s.StartTime.Add(time.Duration(s.DurationSeconds) * time.Second)
	return &end
}

// Material is a meeting material (slides, agenda, minutes, recording, etc).
type Material struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	Order    int    `json:"order,omitempty"`
}

// Person is someone involved in an IETF session (chair, presenter, author).
type Person struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Role        string `json:"role,omitempty"`
}

// VideoRef is metadata for a recording published on YouTube.
type VideoRef struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	UploadDate      string `json:"upload_date,omitempty"`
}

// ChatMessage is a single message from the session's Zulip stream.
type ChatMessage struct {
	Timestamp   time.Time `json:"timestamp"`
	Sender      string    `json:"sender"`
	SenderEmail string    `json:"sender_email,omitempty"`
	Content     string    `json:"content"`
	Topic       string    `json:"topic,omitempty"`
	Stream      string    `json:"stream,omitempty"`
}
