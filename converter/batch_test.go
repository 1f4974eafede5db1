package converter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
)

func batchDirectory() *fakeDirectory {
	vconSession := *testSession()
	moqSession := *testSession()
	moqSession.GroupAcronym = "moq"
	moqSession.SessionID = "5502"

	return &fakeDirectory{
		meeting: testMeeting(),
		sessions: map[string][]ietf.Session{
			"vcon": {vconSession},
			"moq":  {moqSession},
		},
	}
}

func TestConvertMeeting(t *testing.T) {
	dir := batchDirectory()
	video := &fakeVideo{searchErr: errors.New("not found")}
	c := testConverter(t, dir, video)

	result, err := c.ConvertMeeting(context.Background(), 123, nil, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalSessions)
	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 0, result.Failed)
	assert.True(t, result.Success)
	require.Len(t, result.Results, 2)

	groups := map[string]bool{}
	for _, r := range result.Results {
		groups[r.GroupAcronym] = true
		assert.FileExists(t, r.Path)
	}
	assert.True(t, groups["vcon"])
	assert.True(t, groups["moq"])
}

func TestConvertMeetingGroupFilter(t *testing.T) {
	dir := batchDirectory()
	video := &fakeVideo{searchErr: errors.New("not found")}
	c := testConverter(t, dir, video)

	result, err := c.ConvertMeeting(context.Background(), 123, []string{"vcon"}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalSessions)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "vcon", result.Results[0].GroupAcronym)
	assert.Equal(t, "ietf123_vcon_5501.vcon.json", filepath.Base(result.Results[0].Path))
}

func TestConvertMeetingNoSessions(t *testing.T) {
	dir := &fakeDirectory{meeting: testMeeting()}
	c := testConverter(t, dir, &fakeVideo{searchErr: errors.New("not found")})

	result, err := c.ConvertMeeting(context.Background(), 123, nil, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalSessions)
	assert.True(t, result.Success)
}

func TestConvertMeetingProgress(t *testing.T) {
	dir := batchDirectory()
	c := testConverter(t, dir, &fakeVideo{searchErr: errors.New("not found")})

	progress := NewProgress(0)
	result, err := c.ConvertMeeting(context.Background(), 123, nil, 1, progress)
	require.NoError(t, err)
	require.True(t, result.Success)

	processed, converted, failed, total := progress.Snapshot()
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, converted)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 2, total)
	assert.Equal(t, "completed", progress.Status)
}

func TestMeetingGroups(t *testing.T) {
	dir := batchDirectory()
	unknown := *testSession()
	unknown.GroupAcronym = "unknown"
	dir.sessions["unknown"] = []ietf.Session{unknown}

	c := testConverter(t, dir, &fakeVideo{})
	groups, err := c.meetingGroups(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, []string{"moq", "vcon"}, groups)
}
