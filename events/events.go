/*
Package events handles raw event records: their wire format, publishing new occurrences
and the HTTP handler that accepts them.
*/
package events

import (
	"context"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// max occurrences a single request may publish
const maxPublishCount = 1000

// wrap event publishing resources in central location
type Events struct {
	publisher Publisher
	closer    func() error
}

func NewEvents(publisher Publisher) *Events {
	return &Events{publisher: publisher, closer: func() error { return nil }}
}

// NewEventsFromSettings publishes through kafka when an endpoint is configured, otherwise straight to storage.
func NewEventsFromSettings(ctx context.Context, store storage.FileStorage) (*Events, error) {
	if st.Kafka.Endpoint == "" {
		st.Logger.Info().Msg("no kafka endpoint, publishing events directly to storage")
		return NewEvents(NewStorePublisher(store)), nil
	}
	pollWait, err := time.ParseDuration(st.Kafka.PollWait)
	if err != nil {
		return nil, err
	}
	prov, err := provider.NewSaramaProvider(ctx, st.Kafka.Endpoint, pollWait)
	if err != nil {
		return nil, err
	}
	err = prov.EnsureTopic(st.Kafka.Topic, 1)
	if err != nil {
		return nil, err
	}
	producer, err := prov.CreateProducer()
	if err != nil {
		return nil, err
	}
	pub := NewKafkaPublisher(producer, st.Kafka.Topic)
	return &Events{publisher: pub, closer: pub.Close}, nil
}

// PublishMany publishes count occurrences of key, stopping at the first failure.
func (ev *Events) PublishMany(ctx context.Context, key, eventType string, count int) ([]Event, error) {
	published := make([]Event, 0, count)
	for i := 0; i < count; i++ {
		e, err := ev.publisher.Publish(ctx, key, eventType)
		if err != nil {
			return published, err
		}
		published = append(published, e)
	}
	return published, nil
}

func (ev *Events) Close() error {
	return ev.closer()
}
