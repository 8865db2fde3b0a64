package events

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StoreLabel is the storage label raw events are kept under.
const StoreLabel = "events"

// DefaultEventType is used when a record doesn't name its type.
const DefaultEventType = "view"

// Event is one raw occurrence of a key.
type Event struct {
	// ID is unique per occurrence and drives idempotent consumption
	ID string `json:"event_id"`
	// Key is the thing being counted, e.g. a song or product id
	Key       string `json:"key"`
	Type      string `json:"event_type"`
	Timestamp int64  `json:"timestamp"`
}

// MalformedRecordError is returned when a raw record fails to parse or misses required fields.
type MalformedRecordError struct {
	ID  string
	msg string
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed record: %s", e.msg)
	}
	return fmt.Sprintf("malformed record %s: %s", e.ID, e.msg)
}

// NewEvent creates a new occurrence of key with a fresh id.
func NewEvent(key, eventType string, now time.Time) Event {
	if eventType == "" {
		eventType = DefaultEventType
	}
	return Event{ID: uuid.NewString(), Key: key, Type: eventType, Timestamp: now.Unix()}
}

// Marshal encodes the event in its canonical form.
func (e Event) Marshal() ([]byte, error) {
	raw := []byte(`{}`)
	var err error
	for _, field := range []struct {
		path  string
		value any
	}{
		{"event_id", e.ID},
		{"key", e.Key},
		{"event_type", e.Type},
		{"timestamp", e.Timestamp},
	} {
		raw, err = sjson.SetBytes(raw, field.path, field.value)
		if err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// Parse decodes a raw event record.
//
// The canonical form is {"event_id", "key", "event_type", "timestamp"}. Records carrying a
// "message_id" use the older publisher layout, where message_id is the unique id and
// event_id is the key being counted.
func Parse(raw []byte) (Event, error) {
	ev := Event{}
	if !gjson.ValidBytes(raw) {
		return ev, &MalformedRecordError{msg: "invalid json"}
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return ev, &MalformedRecordError{msg: "not an object"}
	}
	idField, keyField := "event_id", "key"
	if parsed.Get("message_id").Exists() {
		idField, keyField = "message_id", "event_id"
	}
	id := parsed.Get(idField)
	if id.Type != gjson.String || strings.TrimSpace(id.String()) == "" {
		return ev, &MalformedRecordError{msg: fmt.Sprintf("missing %s", idField)}
	}
	if reason := checkID(id.String()); reason != "" {
		return ev, &MalformedRecordError{msg: fmt.Sprintf("%s %q %s", idField, id.String(), reason)}
	}
	ev.ID = id.String()
	key := parsed.Get(keyField)
	if key.Type != gjson.String || key.String() == "" {
		return ev, &MalformedRecordError{ID: ev.ID, msg: fmt.Sprintf("missing %s", keyField)}
	}
	ev.Key = key.String()
	ev.Type = parsed.Get("event_type").String()
	if ev.Type == "" {
		ev.Type = DefaultEventType
	}
	ev.Timestamp = parsed.Get("timestamp").Int()
	return ev, nil
}

// checkID returns why an event id can't name a storage object, or empty when it can.
// Ids become object names directly so they must stay a single path element.
func checkID(id string) string {
	switch {
	case strings.ContainsAny(id, `/\`):
		return "contains a path separator"
	case strings.Contains(id, ".."):
		return "contains '..'"
	case strings.HasPrefix(id, "."):
		return "starts with '.'"
	case strings.ContainsFunc(id, unicode.IsControl):
		return "contains control characters"
	}
	return ""
}

// ObjectID is the storage object id for an event id.
// Ids already carrying the .json suffix are left as they are.
func ObjectID(eventID string) string {
	return strings.TrimSuffix(eventID, ".json") + ".json"
}

// EventID is the event id for a storage object id.
func EventID(objectID string) string {
	return strings.TrimSuffix(objectID, ".json")
}
