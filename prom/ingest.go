package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_ingest_messages_total",
		Help: "Messages consumed by ingest by outcome (stored, duplicate, malformed, error)",
	}, []string{"result"})
	DedupeCacheLookups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_dedupe_lookups_total",
		Help: "The total number of dedupe lookups",
	})
	DedupeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_dedupe_hits_total",
		Help: "The total number of dedupe cache hits",
	})
	DedupeCacheCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_dedupe_collisions_total",
		Help: "The total number of dedupe cache collisions",
	})
	KafkaReceiveMessageBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_kafka_consumed_message_bytes_total",
		Help: "Total bytes received for a topic and group.",
	}, []string{"group", "topic"})
	KafkaRebalanceCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_kafka_rebalance_count",
		Help: "Total number of rebalances (assign or revoke)",
	}, []string{"group"})
	KafkaConsumerResetCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_kafka_consumer_restart_count",
		Help: "Total number of times a consumer has restarted (kerrorCode 100 means not a kafka error).",
	}, []string{"group", "kerrorCode"})
	KafkaTransmitMessageBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_kafka_produced_message_bytes_total",
		Help: "Total bytes produced to Kafka.",
	}, []string{"topic"})
	KafkaTransmitErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_kafka_produced_message_error_total",
		Help: "Total number of produce events that have failed.",
	}, []string{"topic"})
)
