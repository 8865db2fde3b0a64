package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	sarama_internals "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider/sarama_internals"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/IBM/sarama"
	"github.com/rcrowley/go-metrics"
)

type SaramaKafkaProvider struct {
	brokers      []string
	kafkaVersion sarama.KafkaVersion
	ctx          context.Context
	pollWait     time.Duration
}

func NewSaramaProvider(ctx context.Context, bootstrap string, pollWait time.Duration) (*SaramaKafkaProvider, error) {
	st.Logger.Info().Str("bootstrap", bootstrap).Msg("new kafka provider")
	if len(bootstrap) == 0 {
		return nil, fmt.Errorf("no endpoint for kafka")
	}
	kafkaVersion, err := sarama.ParseKafkaVersion(sarama.V3_0_0_0.String())
	if err != nil {
		return nil, fmt.Errorf("error parsing kafka version: %w", err)
	}
	brokers := strings.Split(bootstrap, ",")
	return &SaramaKafkaProvider{brokers: brokers, kafkaVersion: kafkaVersion, ctx: ctx, pollWait: pollWait}, nil
}

func (kp *SaramaKafkaProvider) CreateConsumer(group, topic, offset string) (ConsumerInterface, error) {
	// Context to allow consumer to be closed, by itself or if the parent context closes.
	ctx, cancel := context.WithCancel(kp.ctx)
	consumer, err := sarama_internals.NewGroupConsumer(ctx, kp.brokers, kp.kafkaVersion, group, topic, offset)
	if err != nil {
		cancel()
		return nil, err
	}
	st.Logger.Debug().Str("group", group).Str("offset", offset).Str("topic", topic).Msg("consumer subscribed to topic")
	return &SaramaKafkaConsumer{Consumer: consumer, cancel: cancel, pollWait: kp.pollWait}, nil
}

func (kp *SaramaKafkaProvider) CreateProducer() (ProducerInterface, error) {
	config := sarama.NewConfig()
	// ensure we can publish larger messages than 1MB default
	config.Producer.MaxMessageBytes = int(st.Kafka.MessageMaxBytes)
	config.MetricRegistry = metrics.DefaultRegistry
	config.Metadata.Full = false
	config.ChannelBufferSize = st.Kafka.ChannelSize
	config.Version = kp.kafkaVersion
	config.Producer.Compression = sarama.CompressionLZ4
	config.Producer.RequiredAcks = sarama.WaitForAll
	// events for the same key land on the same partition
	config.Producer.Partitioner = sarama.NewHashPartitioner
	// Provides a name for this kafka connection for logging debugging and auditing.
	config.ClientID = "leaderboardProducer"
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	prod, err := sarama.NewSyncProducer(kp.brokers, config)
	if err != nil {
		return nil, err
	}
	return &SaramaKafkaProducer{producer: prod}, nil
}

func (kp *SaramaKafkaProvider) EnsureTopic(topic string, partitions int32) error {
	return sarama_internals.EnsureTopic(kp.brokers, kp.kafkaVersion, topic, partitions)
}

type SaramaKafkaConsumer struct {
	Consumer *sarama_internals.GroupConsumer
	cancel   context.CancelFunc
	pollWait time.Duration
}

/*Indicate if a Sarama Kafka consumer is ready to consume.*/
func (kc *SaramaKafkaConsumer) Ready() bool {
	return kc.Consumer.Ready()
}

/*Read the next message from the consumer channel, waiting at most pollWait.*/
func (kc *SaramaKafkaConsumer) Poll() *Message {
	timer := time.NewTimer(kc.pollWait)
	defer timer.Stop()
	select {
	case msg := <-kc.Consumer.DataChan:
		return msg
	case <-timer.C:
		return nil
	}
}

/*Close the current consumer so it stops reading messages from kafka.*/
func (kc *SaramaKafkaConsumer) Close() error {
	kc.cancel()
	return nil
}

type SaramaKafkaProducer struct {
	producer sarama.SyncProducer
}

func (sp *SaramaKafkaProducer) Produce(topic string, key, value []byte) error {
	prom.KafkaTransmitMessageBytes.WithLabelValues(topic).Add(float64(len(value)))
	_, _, err := sp.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		prom.KafkaTransmitErrorCount.WithLabelValues(topic).Inc()
	}
	return err
}

func (sp *SaramaKafkaProducer) Close() error {
	return sp.producer.Close()
}
