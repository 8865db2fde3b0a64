package cmd

import (
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	"github.com/spf13/cobra"
)

var batchInterval time.Duration

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Close newly stored events into an exact batch",
	Long: `Runs the batch pipeline. Every stored event not yet in the batch ledger is counted
exactly and written as a new immutable batch, then the events are recorded as consumed.

Runs once by default. With --interval it repeats until interrupted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if batchInterval > 0 {
			go prom.StartStandalonePromServer()
		}
		sys := openSystem()
		defer sys.Close()
		runPipeline("batch", sys.Batch, batchInterval)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().DurationVar(&batchInterval, "interval", 0, "repeat at this interval, e.g. 5m")
}
