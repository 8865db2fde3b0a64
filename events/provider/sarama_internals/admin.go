package saramago

import (
	"errors"
	"time"

	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/IBM/sarama"
	"github.com/rcrowley/go-metrics"
)

func newAdmin(brokers []string, kafkaVersion sarama.KafkaVersion) (sarama.ClusterAdmin, error) {
	config := sarama.NewConfig()
	config.Admin.Timeout = time.Duration(30) * time.Second
	config.Version = kafkaVersion
	config.Net.MaxOpenRequests = 1
	// Provides a name for this kafka connection for logging debugging and auditing.
	config.ClientID = "leaderboardAdmin"
	config.MetricRegistry = metrics.DefaultRegistry
	return sarama.NewClusterAdmin(brokers, config)
}

// EnsureTopic creates the topic if it is missing. An existing topic is left untouched.
func EnsureTopic(brokers []string, kafkaVersion sarama.KafkaVersion, topic string, partitions int32) error {
	admin, err := newAdmin(brokers, kafkaVersion)
	if err != nil {
		return err
	}
	defer admin.Close()
	err = admin.CreateTopic(topic, &sarama.TopicDetail{NumPartitions: partitions, ReplicationFactor: -1}, false)
	if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
		return err
	}
	st.Logger.Debug().Str("topic", topic).Msg("topic ready")
	return nil
}
