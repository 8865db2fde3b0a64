/*
Package ingest lands raw events from kafka in the event store.

Each message is parsed, checked against a duplicate delivery filter and stored under its
event id. Storing is idempotent so a redelivery that slips past the filter only rewrites
an identical object.
*/
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/dedupe"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

const (
	ResultStored    = "stored"
	ResultDuplicate = "duplicate"
	ResultMalformed = "malformed"
	ResultError     = "error"
)

type Ingester struct {
	consumer provider.ConsumerInterface
	store    storage.FileStorage
	// optional, nil stores every delivery
	seen *dedupe.Filter
}

func NewIngester(consumer provider.ConsumerInterface, store storage.FileStorage, seen *dedupe.Filter) *Ingester {
	return &Ingester{consumer: consumer, store: store, seen: seen}
}

type ingestErrLog struct {
	Topic     string `json:"topic"`
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
	Error     string `json:"error"`
}

// Handle processes a single message and acks it unless storing failed.
func (in *Ingester) Handle(ctx context.Context, msg *provider.Message) (string, error) {
	ev, err := events.Parse(msg.Value)
	if err != nil {
		st.Logger.Warn().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("skipping malformed event")
		st.WriteFileLog(st.ChLogIngestErr, ingestErrLog{Topic: msg.Topic, Partition: msg.Partition, Offset: msg.Offset, Error: err.Error()})
		prom.IngestMessages.WithLabelValues(ResultMalformed).Inc()
		msg.Ack()
		return ResultMalformed, nil
	}
	if in.seen != nil && in.seen.Seen(ev.ID) {
		prom.IngestMessages.WithLabelValues(ResultDuplicate).Inc()
		msg.Ack()
		return ResultDuplicate, nil
	}
	err = in.store.Put(ctx, events.StoreLabel, events.ObjectID(ev.ID), msg.Value)
	if err != nil {
		if in.seen != nil {
			in.seen.Forget(ev.ID)
		}
		prom.IngestMessages.WithLabelValues(ResultError).Inc()
		return ResultError, fmt.Errorf("failed to store event %s: %w", ev.ID, err)
	}
	prom.IngestMessages.WithLabelValues(ResultStored).Inc()
	msg.Ack()
	return ResultStored, nil
}

// Run consumes until the context is cancelled or an event cannot be stored.
// Unacked messages are redelivered to the next consumer in the group.
func (in *Ingester) Run(ctx context.Context) error {
	defer in.consumer.Close()
	for {
		if ctx.Err() != nil {
			return nil
		}
		msg := in.consumer.Poll()
		if msg == nil {
			continue
		}
		_, err := in.Handle(ctx, msg)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}
