package provider

import (
	"sync"
	"time"

	sarama_internals "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider/sarama_internals"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
)

// MemoryProvider is a single partition, in process stand in for kafka.
// Group offsets only advance when a message is acked, matching the kafka provider.
type MemoryProvider struct {
	mu       sync.Mutex
	topics   map[string][][]byte
	keys     map[string][][]byte
	groups   map[string]map[string]int64
	pollWait time.Duration
}

func NewMemoryProvider(pollWait time.Duration) *MemoryProvider {
	st.Logger.Info().Msg("new in memory provider")
	return &MemoryProvider{
		topics:   map[string][][]byte{},
		keys:     map[string][][]byte{},
		groups:   map[string]map[string]int64{},
		pollWait: pollWait,
	}
}

func (prov *MemoryProvider) EnsureTopic(topic string, partitions int32) error {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	if _, ok := prov.topics[topic]; !ok {
		prov.topics[topic] = [][]byte{}
		prov.keys[topic] = [][]byte{}
	}
	return nil
}

// Len returns the number of messages ever produced to topic.
func (prov *MemoryProvider) Len(topic string) int {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	return len(prov.topics[topic])
}

func (prov *MemoryProvider) CreateProducer() (ProducerInterface, error) {
	return &MemoryProducer{prov: prov}, nil
}

func (prov *MemoryProvider) CreateConsumer(group, topic, offset string) (ConsumerInterface, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	if _, ok := prov.groups[group]; !ok {
		prov.groups[group] = map[string]int64{}
	}
	if _, ok := prov.groups[group][topic]; !ok {
		start := int64(0)
		if offset == "latest" {
			start = int64(len(prov.topics[topic]))
		}
		prov.groups[group][topic] = start
	}
	return &MemoryConsumer{prov: prov, group: group, topic: topic, next: prov.groups[group][topic]}, nil
}

// committed returns the acked offset for a group on a topic.
func (prov *MemoryProvider) committed(group, topic string) int64 {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	return prov.groups[group][topic]
}

type MemoryConsumer struct {
	prov   *MemoryProvider
	group  string
	topic  string
	next   int64
	closed bool
}

func (c *MemoryConsumer) Ready() bool {
	return !c.closed
}

func (c *MemoryConsumer) pop() *Message {
	c.prov.mu.Lock()
	defer c.prov.mu.Unlock()
	values := c.prov.topics[c.topic]
	if c.next >= int64(len(values)) {
		return nil
	}
	offset := c.next
	c.next++
	group, topic, prov := c.group, c.topic, c.prov
	return sarama_internals.NewMessage(c.prov.keys[topic][offset], values[offset], topic, 0, offset, func() {
		prov.mu.Lock()
		defer prov.mu.Unlock()
		if prov.groups[group][topic] < offset+1 {
			prov.groups[group][topic] = offset + 1
		}
	})
}

func (c *MemoryConsumer) Poll() *Message {
	if c.closed {
		return nil
	}
	deadline := time.Now().Add(c.prov.pollWait)
	for {
		msg := c.pop()
		if msg != nil {
			return msg
		}
		if time.Now().After(deadline) {
			return nil
		}
		// try not to busy wait
		time.Sleep(time.Millisecond)
	}
}

func (c *MemoryConsumer) Close() error {
	c.closed = true
	return nil
}

type MemoryProducer struct {
	prov *MemoryProvider
}

func (p *MemoryProducer) Produce(topic string, key, value []byte) error {
	p.prov.mu.Lock()
	defer p.prov.mu.Unlock()
	p.prov.topics[topic] = append(p.prov.topics[topic], value)
	p.prov.keys[topic] = append(p.prov.keys[topic], key)
	return nil
}

func (p *MemoryProducer) Close() error {
	return nil
}
