package saramago

import "sync"

// Message is a copy of a consumed Kafka record, safe to hold after the claim moves on.
type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int32
	Offset    int64

	ackOnce sync.Once
	ack     func()
}

// NewMessage returns a message that runs ack the first time Ack is called.
func NewMessage(key, value []byte, topic string, partition int32, offset int64, ack func()) *Message {
	return &Message{Key: key, Value: value, Topic: topic, Partition: partition, Offset: offset, ack: ack}
}

// Ack marks the message as processed so the group offset may move past it.
func (m *Message) Ack() {
	if m.ack == nil {
		return
	}
	m.ackOnce.Do(m.ack)
}
