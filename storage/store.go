/*
Package storage keeps raw events, exact batches and sketch state as small immutable objects.

Objects are addressed by a label (events, batches, sketch) and an id unique within the label.
*/
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
)

const (
	LabelEvents  = "events"
	LabelBatches = "batches"
	LabelSketch  = "sketch"
)

/* Provide object storage. */
type FileStorage interface {
	// Put stores data under label/id, replacing any existing object.
	Put(ctx context.Context, label, id string, data []byte) error
	Fetch(ctx context.Context, label, id string) ([]byte, error)
	Exists(ctx context.Context, label, id string) (bool, error)
	// List returns every id under label in sorted order.
	List(ctx context.Context, label string) ([]string, error)
	Delete(ctx context.Context, label, id string) (bool, error)
}

type NotFoundError struct{}

func (e *NotFoundError) Error() string {
	return "not found"
}

type AccessError struct {
	msg string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("no access: %v", e.msg)
}

type ReadError struct {
	msg string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error: %v", e.msg)
}

// objectPath joins label and id into a single object key
func objectPath(label, id string) string {
	return strings.Join([]string{label, id}, "/")
}

// idsUnder strips label prefixes from object keys and sorts them
func idsUnder(label string, keys []string) []string {
	prefix := label + "/"
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, prefix)
		// skip anything nested further
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// reportStorageOpMetric report a storage method duration for prometheus
func reportStorageOpMetric(startTime int64, operationName string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	durationSeconds := float64(time.Now().UnixNano()-startTime) / 1e9
	prom.StorageOperationDuration.WithLabelValues(operationName, result).Observe(durationSeconds)
}
