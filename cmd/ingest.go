package cmd

import (
	"errors"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/dedupe"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/ingest"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Land events from kafka in the event store",
	Long: `Consumes the events topic in a consumer group and stores each raw event under its
id. Offsets are committed only once the event is stored.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		go prom.StartStandalonePromServer()
		ctx, cancel := signalContext()
		defer cancel()
		setupKafkaMetrics()
		if st.Kafka.Endpoint == "" {
			exitOnErr("starting ingest", errors.New("LB__KAFKA__ENDPOINT must be set"))
		}
		pollWait, err := time.ParseDuration(st.Kafka.PollWait)
		exitOnErr("reading kafka poll wait", err)
		store, err := storage.NewFromSettings(&st.Settings.Storage)
		exitOnErr("opening storage", err)
		prov, err := provider.NewSaramaProvider(ctx, st.Kafka.Endpoint, pollWait)
		exitOnErr("initialising kafka", err)
		err = prov.EnsureTopic(st.Kafka.Topic, 1)
		exitOnErr("creating topic", err)
		consumer, err := prov.CreateConsumer(st.Kafka.ConsumerGroup, st.Kafka.Topic, st.Kafka.Offset)
		exitOnErr("creating consumer", err)

		var seen *dedupe.Filter
		if st.Settings.Ingest.DedupeCacheBytes > 0 {
			seen = dedupe.New(uint64(st.Settings.Ingest.DedupeCacheBytes))
		}
		st.Logger.Info().Str("topic", st.Kafka.Topic).Str("group", st.Kafka.ConsumerGroup).Msg("ingesting events")
		err = ingest.NewIngester(consumer, store, seen).Run(ctx)
		exitOnErr("ingesting", err)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
