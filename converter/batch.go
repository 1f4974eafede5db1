package converter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
)

// DefaultConcurrency is the default number of concurrent session workers.
const DefaultConcurrency = 3

// SessionError records a failure for a specific session.
type SessionError struct {
	GroupAcronym string
	SessionID    string
	Error        string
}

// BatchResult contains the outcome of a whole-meeting conversion.
type BatchResult struct {
	MeetingNumber int
	TotalSessions int
	Converted     int
	Failed        int
	StartedAt     time.Time
	CompletedAt   time.Time
	Success       bool
	Results       []*Result
	Errors        []SessionError
}

// ConvertMeeting converts every session of a meeting, or only the named
// groups when groups is non-empty. Sessions are converted by a pool of
// concurrency workers; per-session failures are collected, not fatal.
func (c *Converter) ConvertMeeting(ctx context.Context, meetingNumber int, groups []string, concurrency int, progress *Progress) (*BatchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	meeting, err := c.Directory.GetMeeting(ctx, meetingNumber)
	if err != nil {
		return nil, fmt.Errorf("convert meeting %d: %w", meetingNumber, err)
	}

	if len(groups) == 0 {
		groups, err = c.meetingGroups(ctx, meetingNumber)
		if err != nil {
			return nil, fmt.Errorf("convert meeting %d: %w", meetingNumber, err)
		}
	}

	var sessions []ietf.Session
	for _, group := range groups {
		gs, err := c.Directory.GetGroupSessions(ctx, meetingNumber, group)
		if err != nil {
			c.logger.Warn("session listing failed",
				logging.F("group", group), logging.Err(err))
			continue
		}
		sessions = append(sessions, gs...)
	}

	result := &BatchResult{
		MeetingNumber: meetingNumber,
		TotalSessions: len(sessions),
		StartedAt:     time.Now(),
		Errors:        []SessionError{},
	}
	if len(sessions) == 0 {
		result.CompletedAt = time.Now()
		result.Success = true
		return result, nil
	}

	if progress == nil {
		progress = NewProgress(len(sessions))
	} else {
		progress.reset(len(sessions))
	}
	progress.Start()

	sessionsCh := make(chan ietf.Session, len(sessions))
	outcomesCh := make(chan sessionOutcome, len(sessions))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for session := range sessionsCh {
				if ctx.Err() != nil {
					outcomesCh <- sessionOutcome{session: session, err: ctx.Err()}
					continue
				}
				progress.SetCurrentSession(session.GroupAcronym, session.SessionID)
				res, err := c.ConvertSession(ctx, meeting, &session)
				outcomesCh <- sessionOutcome{session: session, result: res, err: err}
			}
		}()
	}

	for _, session := range sessions {
		sessionsCh <- session
	}
	close(sessionsCh)

	go func() {
		wg.Wait()
		close(outcomesCh)
	}()

	for o := range outcomesCh {
		if o.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, SessionError{
				GroupAcronym: o.session.GroupAcronym,
				SessionID:    o.session.SessionID,
				Error:        o.err.Error(),
			})
			progress.RecordFailed()
			continue
		}
		result.Converted++
		result.Results = append(result.Results, o.result)
		progress.RecordConverted()
	}

	result.CompletedAt = time.Now()
	result.Success = result.Failed == 0
	progress.Complete(result.Success)
	return result, nil
}

type sessionOutcome struct {
	session ietf.Session
	result  *Result
	err     error
}

// meetingGroups lists the distinct working groups with sessions at a
// meeting, sorted for stable conversion order.
func (c *Converter) meetingGroups(ctx context.Context, meetingNumber int) ([]string, error) {
	sessions, err := c.Directory.GetMeetingSessions(ctx, meetingNumber)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var groups []string
	for _, s := range sessions {
		if s.GroupAcronym == "" || s.GroupAcronym == "unknown" || seen[s.GroupAcronym] {
			continue
		}
		seen[s.GroupAcronym] = true
		groups = append(groups, s.GroupAcronym)
	}
	sort.Strings(groups)
	return groups, nil
}
