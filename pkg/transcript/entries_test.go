package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTimedEntries_NumericTimes(t *testing.T) {
	doc := `{
		"entries": [
			{"text": "Hello.", "start": 0, "end": 3.5},
			{"text": "World.", "start": 3.5, "end": 7, "speaker": 2}
		]
	}`

	result, err := LoadTimedEntries(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, result.Segments, 2)
	assert.Equal(t, "meetecho", result.Provider)
	assert.Equal(t, 3.5, result.Segments[0].End)
	assert.Nil(t, result.Segments[0].Speaker)
	require.NotNil(t, result.Segments[1].Speaker)
	assert.Equal(t, 2, *result.Segments[1].Speaker)
	assert.Equal(t, "Hello. World.", result.Text)
}

func TestLoadTimedEntries_AlternateFieldNames(t *testing.T) {
	// "transcript" root, "content" text, "timestamp" start, no end.
	doc := `{
		"transcript": [
			{"content": "Opening remarks.", "timestamp": "00:01:30"}
		]
	}`

	result, err := LoadTimedEntries(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	seg := result.Segments[0]
	assert.Equal(t, "Opening remarks.", seg.Text)
	assert.Equal(t, 90.0, seg.Start)
	assert.Equal(t, 95.0, seg.End) // defaults to start + 5s
}

func TestLoadTimedEntries_StringTimestampShapes(t *testing.T) {
	doc := `{
		"entries": [
			{"text": "a", "start": "01:02:03", "end": "01:02:10"},
			{"text": "b", "start": "02:15", "end": "02:20"},
			{"text": "c", "start": "42", "end": "garbage"}
		]
	}`

	result, err := LoadTimedEntries(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, result.Segments, 3)
	assert.Equal(t, 3723.0, result.Segments[0].Start)
	assert.Equal(t, 135.0, result.Segments[1].Start)
	assert.Equal(t, 42.0, result.Segments[2].Start)
	// Unparseable end defaults to 0.
	assert.Equal(t, 0.0, result.Segments[2].End)
}

func TestLoadTimedEntries_SequentialIDs(t *testing.T) {
	doc := `{"entries": [{"text": "a", "start": 0}, {"text": "b", "start": 5}, {"text": "c", "start": 10}]}`

	result, err := LoadTimedEntries(strings.NewReader(doc))
	require.NoError(t, err)

	for i, seg := range result.Segments {
		assert.Equal(t, i, seg.ID)
	}
}

func TestLoadTimedEntries_EmptyDocument(t *testing.T) {
	result, err := LoadTimedEntries(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Empty(t, result.Segments)
}
