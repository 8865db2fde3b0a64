package provider

import (
	sarama_internals "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider/sarama_internals"
)

type Message = sarama_internals.Message

type ProviderInterface interface {
	CreateConsumer(group, topic, offset string) (ConsumerInterface, error)
	CreateProducer() (ProducerInterface, error)
	// EnsureTopic creates the topic if it does not exist yet.
	EnsureTopic(topic string, partitions int32) error
}

type ConsumerInterface interface {
	Ready() bool
	// Return a message if one is ready, otherwise nil once the poll wait has passed.
	Poll() *Message
	Close() error
}

type ProducerInterface interface {
	// Produce blocks until the broker has acknowledged the message.
	Produce(topic string, key, value []byte) error
	Close() error
}
