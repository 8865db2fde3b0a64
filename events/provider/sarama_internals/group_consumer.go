package saramago

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/IBM/sarama"
	"github.com/rcrowley/go-metrics"
)

// GroupConsumer reads a single topic as a member of a consumer group.
// Offsets only advance once the receiver acks each message.
type GroupConsumer struct {
	DataChan chan *Message
	Group    string
	Topic    string
	Brokers  []string
	// number of partitions currently claimed
	claimed atomic.Int32
	client  sarama.ConsumerGroup
}

/*
Create a Sarama consumer group member and start it consuming from kafka.
ctx: context which will stop the consumer when cancelled.
group: consumer group name.
offset: 'earliest' or 'latest', used when the group has no committed offset.
*/
func NewGroupConsumer(ctx context.Context, brokers []string, kafkaVersion sarama.KafkaVersion, group, topic, offset string) (*GroupConsumer, error) {
	config := sarama.NewConfig()
	config.Version = kafkaVersion
	config.ChannelBufferSize = st.Kafka.ChannelSize
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	config.Metadata.Full = false
	config.MetricRegistry = metrics.DefaultRegistry
	// Provides a name for this kafka connection for logging debugging and auditing.
	config.ClientID = "leaderboardConsumer"
	config.Consumer.Fetch.Max = int32(st.Kafka.MessageMaxBytes)

	switch strings.ToLower(offset) {
	case "earliest":
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	case "latest":
		config.Consumer.Offsets.Initial = sarama.OffsetNewest
	default:
		return nil, fmt.Errorf("unexpected offset '%s', valid values are earliest and latest", offset)
	}
	client, err := sarama.NewConsumerGroup(brokers, group, config)
	if err != nil {
		return nil, fmt.Errorf("error creating consumer group client: %w", err)
	}
	gc := &GroupConsumer{
		DataChan: make(chan *Message, 1),
		Group:    group,
		Topic:    topic,
		Brokers:  brokers,
		client:   client,
	}
	go gc.run(ctx)
	return gc, nil
}

// run calls Consume in a loop as sarama requires, so server side rebalances are picked up.
func (gc *GroupConsumer) run(ctx context.Context) {
	defer gc.client.Close()
	for {
		err := gc.client.Consume(ctx, []string{gc.Topic}, gc)
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			if errors.Is(err, sarama.ErrRebalanceInProgress) {
				prom.KafkaRebalanceCount.WithLabelValues(gc.Group).Inc()
			}
			st.Logger.Info().Err(err).Str("group", gc.Group).Msg("consumer has errored and will retry")
			// 100 means not a kafka error
			kcode := int64(100)
			var kerr sarama.KError
			if errors.As(err, &kerr) {
				kcode = int64(kerr)
			}
			prom.KafkaConsumerResetCount.WithLabelValues(gc.Group, strconv.FormatInt(kcode, 10)).Inc()
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Ready is true once at least one partition has been claimed.
func (gc *GroupConsumer) Ready() bool {
	return gc.claimed.Load() > 0
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (gc *GroupConsumer) Setup(session sarama.ConsumerGroupSession) error {
	gc.claimed.Store(int32(len(session.Claims()[gc.Topic])))
	prom.KafkaRebalanceCount.WithLabelValues(gc.Group).Inc()
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (gc *GroupConsumer) Cleanup(session sarama.ConsumerGroupSession) error {
	gc.claimed.Store(0)
	return nil
}

// ConsumeClaim hands copies of each message to DataChan.
// It must not be moved to a goroutine, sarama already runs it in one per claim.
func (gc *GroupConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		// returning late causes ErrRebalanceInProgress, see https://github.com/IBM/sarama/issues/1192
		case <-session.Context().Done():
			return nil
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			// sarama reuses its buffers
			key := make([]byte, len(message.Key))
			copy(key, message.Key)
			value := make([]byte, len(message.Value))
			copy(value, message.Value)
			consumed := message
			copied := NewMessage(key, value, strings.Clone(message.Topic), message.Partition, message.Offset, func() {
				session.MarkMessage(consumed, "")
			})
			prom.KafkaReceiveMessageBytes.WithLabelValues(gc.Group, gc.Topic).Add(float64(len(value)))
			select {
			case gc.DataChan <- copied:
			case <-session.Context().Done():
				return nil
			}
		}
	}
}
