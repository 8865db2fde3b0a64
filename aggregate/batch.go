package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Entry is one exact (key, count) pair of a batch.
type Entry struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
}

// Batch is an immutable, closed accounting period over a disjoint set of events.
type Batch struct {
	ID      string
	Created time.Time
	Entries []Entry
}

// MalformedBatchError is returned when a stored batch can't be parsed.
type MalformedBatchError struct {
	ID  string
	msg string
}

func (e *MalformedBatchError) Error() string {
	return fmt.Sprintf("malformed batch %s: %s", e.ID, e.msg)
}

// NewBatch closes counts into a batch, with entries sorted by key.
func NewBatch(id string, created time.Time, counts Counts) *Batch {
	entries := make([]Entry, 0, len(counts))
	for _, k := range counts.Keys() {
		entries = append(entries, Entry{Key: k, Count: counts[k]})
	}
	return &Batch{ID: id, Created: created, Entries: entries}
}

// Counts returns the batch totals.
func (b *Batch) Counts() Counts {
	c := Counts{}
	for _, e := range b.Entries {
		c.Add(e.Key, e.Count)
	}
	return c
}

type batchRecord struct {
	ID      string  `json:"batch_id"`
	Created int64   `json:"created"`
	Entries []Entry `json:"entries"`
}

// Marshal encodes the batch for storage.
func (b *Batch) Marshal() ([]byte, error) {
	return json.Marshal(&batchRecord{ID: b.ID, Created: b.Created.Unix(), Entries: b.Entries})
}

// ParseBatch decodes a stored batch.
// Besides the current format it accepts a bare list of {"event_id", "count"} entries,
// in which case the batch id is taken from the caller.
func ParseBatch(id string, raw []byte) (*Batch, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &MalformedBatchError{id, "invalid json"}
	}
	parsed := gjson.ParseBytes(raw)
	b := &Batch{ID: id}
	var entries []gjson.Result
	switch {
	case parsed.IsArray():
		entries = parsed.Array()
	case parsed.IsObject():
		if stored := parsed.Get("batch_id"); stored.Exists() {
			b.ID = stored.String()
		}
		if created := parsed.Get("created"); created.Exists() {
			b.Created = time.Unix(created.Int(), 0).UTC()
		}
		list := parsed.Get("entries")
		if !list.IsArray() {
			return nil, &MalformedBatchError{id, "no entries"}
		}
		entries = list.Array()
	default:
		return nil, &MalformedBatchError{id, "not a batch"}
	}
	b.Entries = make([]Entry, 0, len(entries))
	for i, raw := range entries {
		key := raw.Get("key")
		if !key.Exists() {
			key = raw.Get("event_id")
		}
		count := raw.Get("count")
		if key.Type != gjson.String || count.Type != gjson.Number || count.Num < 0 {
			return nil, &MalformedBatchError{id, fmt.Sprintf("entry %d needs a string key and non-negative count", i)}
		}
		b.Entries = append(b.Entries, Entry{Key: key.String(), Count: count.Uint()})
	}
	return b, nil
}

// SortBatches orders batches by id, which is creation order for generated ids.
func SortBatches(batches []*Batch) {
	sort.SliceStable(batches, func(i, j int) bool { return batches[i].ID < batches[j].ID })
}
