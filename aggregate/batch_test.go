package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBatchRoundTrip(t *testing.T) {
	created := time.Unix(1700000000, 0).UTC()
	b := NewBatch("batch_00000000000000000001_abcd", created, Counts{"B": 3, "A": 10})
	require.Equal(t, []Entry{{"A", 10}, {"B", 3}}, b.Entries)

	raw, err := b.Marshal()
	require.Nil(t, err)
	require.JSONEq(t, `{"batch_id":"batch_00000000000000000001_abcd","created":1700000000,"entries":[{"key":"A","count":10},{"key":"B","count":3}]}`, string(raw))

	parsed, err := ParseBatch("ignored", raw)
	require.Nil(t, err)
	require.Equal(t, b, parsed)
	require.Equal(t, Counts{"A": 10, "B": 3}, parsed.Counts())
}

func TestParseLegacyBatch(t *testing.T) {
	raw := []byte(`[
  {"event_id": "song1", "count": 4},
  {"event_id": "song2", "count": 1}
]`)
	b, err := ParseBatch("batch_1700000000", raw)
	require.Nil(t, err)
	require.Equal(t, "batch_1700000000", b.ID)
	require.Equal(t, []Entry{{"song1", 4}, {"song2", 1}}, b.Entries)
}

func TestParseBatchMalformed(t *testing.T) {
	tables := []struct {
		test string
		raw  string
	}{
		{"invalid", `{"entries": [`},
		{"scalar", `12`},
		{"no_entries", `{"batch_id": "x"}`},
		{"missing_key", `[{"count": 1}]`},
		{"missing_count", `[{"key": "A"}]`},
		{"string_count", `[{"key": "A", "count": "1"}]`},
		{"negative_count", `[{"key": "A", "count": -1}]`},
	}
	for _, table := range tables {
		_, err := ParseBatch("b", []byte(table.raw))
		var malformed *MalformedBatchError
		require.ErrorAs(t, err, &malformed, table.test)
	}
}

func TestSortBatches(t *testing.T) {
	batches := []*Batch{{ID: "batch_3"}, {ID: "batch_1"}, {ID: "batch_2"}}
	SortBatches(batches)
	require.Equal(t, "batch_1", batches[0].ID)
	require.Equal(t, "batch_3", batches[2].ID)
}
