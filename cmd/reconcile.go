package cmd

import (
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare sketch estimates with exact batch counts",
	Long: `Checks every key in the exact batches against its sketch estimate and reports
overestimate statistics. Any key estimated below its exact count is listed as a violation,
which means the two pipelines have consumed different events.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		sys := openSystem()
		defer sys.Close()
		report, err := sys.Service.Reconcile(ctx)
		exitOnErr("reconciling", err)
		printJSON(report)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
