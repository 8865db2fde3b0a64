package cmd

import (
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	"github.com/spf13/cobra"
)

var streamInterval time.Duration

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Fold newly stored events into the sketch",
	Long: `Runs the stream pipeline. Every stored event not yet in the stream ledger is added
to the persisted Count-Min Sketch, the sketch is saved and then the events are recorded as
consumed.

Runs once by default. With --interval it repeats until interrupted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if streamInterval > 0 {
			go prom.StartStandalonePromServer()
		}
		sys := openSystem()
		defer sys.Close()
		runPipeline("stream", sys.Stream, streamInterval)
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().DurationVar(&streamInterval, "interval", 0, "repeat at this interval, e.g. 10s")
}
