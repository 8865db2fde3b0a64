package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Frequency estimation and top-k leaderboards over an event stream",
	Long: `The leaderboard counts how often keys occur in a stream of events and ranks the
most frequent ones.

Two pipelines consume the same stored events independently. The stream pipeline folds
new events into a Count-Min Sketch for fast approximate rankings. The batch pipeline
closes new events into immutable exact batches for ground truth rankings.

Settings are read from environment variables prefixed with LB, using __ between levels,
for example LB__SKETCH__WIDTH=2000. A yaml file can be supplied with LB_CONFIG_FILE.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
