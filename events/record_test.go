package events

import (
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/testdata"
	"github.com/stretchr/testify/require"
)

func TestNewEventMarshalParse(t *testing.T) {
	ev := NewEvent("song1", "", time.Unix(1700000000, 0))
	require.NotEmpty(t, ev.ID)
	require.Equal(t, DefaultEventType, ev.Type)

	raw, err := ev.Marshal()
	require.Nil(t, err)
	require.JSONEq(t, `{"event_id":"`+ev.ID+`","key":"song1","event_type":"view","timestamp":1700000000}`, string(raw))

	parsed, err := Parse(raw)
	require.Nil(t, err)
	require.Equal(t, ev, parsed)
}

func TestParseLegacyRecord(t *testing.T) {
	raw := []byte(`{"message_id": "7d1f0a5e-0c44-4a4c-9b8e-0f8d2a1c3b4e", "event_id": "product42", "event_type": "click", "timestamp": 1700000001}`)
	ev, err := Parse(raw)
	require.Nil(t, err)
	require.Equal(t, Event{ID: "7d1f0a5e-0c44-4a4c-9b8e-0f8d2a1c3b4e", Key: "product42", Type: "click", Timestamp: 1700000001}, ev)
}

func TestParseMalformed(t *testing.T) {
	tables := []struct {
		test string
		raw  string
	}{
		{"invalid_json", `{"event_id": `},
		{"array", `["a"]`},
		{"missing_id", `{"key": "A"}`},
		{"empty_id", `{"event_id": "", "key": "A"}`},
		{"missing_key", `{"event_id": "1"}`},
		{"numeric_key", `{"event_id": "1", "key": 5}`},
		{"legacy_missing_key", `{"message_id": "1"}`},
		{"blank_id", `{"event_id": "   ", "key": "A"}`},
		{"parent_dir_id", `{"event_id": "../batches/batch_99999999999999999999_evil", "key": "A"}`},
		{"state_id", `{"event_id": "../sketch/cms_state", "key": "A"}`},
		{"nested_id", `{"event_id": "a/b", "key": "A"}`},
		{"backslash_id", `{"event_id": "a\\b", "key": "A"}`},
		{"dotdot_id", `{"event_id": "a..b", "key": "A"}`},
		{"hidden_id", `{"event_id": ".put-1", "key": "A"}`},
		{"control_id", `{"event_id": "a\nb", "key": "A"}`},
		{"legacy_traversal_id", `{"message_id": "../sketch/cms_state", "event_id": "A"}`},
	}
	for _, table := range tables {
		_, err := Parse([]byte(table.raw))
		var malformed *MalformedRecordError
		require.ErrorAs(t, err, &malformed, table.test)
	}
}

func TestObjectID(t *testing.T) {
	require.Equal(t, "abc.json", ObjectID("abc"))
	require.Equal(t, "abc.json", ObjectID("abc.json"))
	require.Equal(t, "abc", EventID("abc.json"))
}

func TestParseFixtures(t *testing.T) {
	ev, err := Parse(testdata.GetEvent("canonical.json"))
	require.Nil(t, err)
	require.Equal(t, "song-42", ev.Key)
	require.Equal(t, "play", ev.Type)

	ev, err = Parse(testdata.GetEvent("legacy.json"))
	require.Nil(t, err)
	require.Equal(t, "5f1d2c3b-aa10-4e6f-8c2d-9b8e7f6a5d41", ev.ID)
	require.Equal(t, "song-7", ev.Key)

	ev, err = Parse(testdata.GetEvent("no_type.json"))
	require.Nil(t, err)
	require.Equal(t, DefaultEventType, ev.Type)

	var malformed *MalformedRecordError
	_, err = Parse(testdata.GetEvent("missing_key.json"))
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "d9e8f7a6-5b4c-4d3e-9f2a-1b0c9d8e7f6a", malformed.ID)
	_, err = Parse(testdata.GetEvent("truncated.json"))
	require.ErrorAs(t, err, &malformed)
}
