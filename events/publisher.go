package events

import (
	"context"
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// Publisher records a new occurrence of a key.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string) (Event, error)
}

// StorePublisher writes raw events straight into the event store.
type StorePublisher struct {
	store storage.FileStorage
	now   func() time.Time
}

func NewStorePublisher(store storage.FileStorage) *StorePublisher {
	return &StorePublisher{store: store, now: time.Now}
}

func (p *StorePublisher) Publish(ctx context.Context, key, eventType string) (Event, error) {
	ev := NewEvent(key, eventType, p.now())
	raw, err := ev.Marshal()
	if err != nil {
		return ev, err
	}
	err = p.store.Put(ctx, StoreLabel, ObjectID(ev.ID), raw)
	if err != nil {
		return ev, fmt.Errorf("failed to store event %s: %w", ev.ID, err)
	}
	return ev, nil
}

// KafkaPublisher produces raw events to a topic, keyed by the event key.
// They reach the event store through ingest.
type KafkaPublisher struct {
	producer provider.ProducerInterface
	topic    string
	now      func() time.Time
}

func NewKafkaPublisher(producer provider.ProducerInterface, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key, eventType string) (Event, error) {
	ev := NewEvent(key, eventType, p.now())
	raw, err := ev.Marshal()
	if err != nil {
		return ev, err
	}
	err = p.producer.Produce(p.topic, []byte(ev.Key), raw)
	if err != nil {
		return ev, fmt.Errorf("failed to produce event %s: %w", ev.ID, err)
	}
	return ev, nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
