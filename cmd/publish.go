package cmd

import (
	"fmt"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
	"github.com/spf13/cobra"
)

var (
	publishType  string
	publishCount int
)

var publishCmd = &cobra.Command{
	Use:   "publish <key>",
	Short: "Publish occurrences of a key",
	Long: `Publishes new raw events for a key. Events go to kafka when LB__KAFKA__ENDPOINT
is set and straight into the event store otherwise.`,
	Example: `leaderboard publish song-42 --event_type play --count 3`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		setupKafkaMetrics()
		store, err := storage.NewFromSettings(&st.Settings.Storage)
		exitOnErr("opening storage", err)
		ev, err := events.NewEventsFromSettings(ctx, store)
		exitOnErr("creating publisher", err)
		defer ev.Close()
		published, err := ev.PublishMany(ctx, args[0], publishType, publishCount)
		for _, e := range published {
			fmt.Printf("Published event %s for key %s\n", e.ID, e.Key)
		}
		exitOnErr("publishing", err)
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishType, "event_type", events.DefaultEventType, "type of event")
	publishCmd.Flags().IntVar(&publishCount, "count", 1, "number of occurrences to publish")
}
