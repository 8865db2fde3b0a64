package cmd

import (
	"fmt"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/leaderboard"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/spf13/cobra"
)

var (
	topkMode    string
	topkK       int
	topkRefresh bool
	topkJSON    bool
)

var topkCmd = &cobra.Command{
	Use:   "topk",
	Short: "Print the most frequent keys",
	Long: `Ranks keys by frequency. Approximate mode estimates counts from the sketch,
exact mode sums every stored batch.

Approximate mode folds any pending events into the sketch first unless --refresh=false.`,
	Example: `leaderboard topk --mode approximate -k 5
leaderboard topk --mode exact -k 10 --json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		sys := openSystem()
		defer sys.Close()
		if topkRefresh {
			sys.Service.WithStreamRefresh(sys.Stream)
		}
		if topkK == 0 {
			topkK = st.Settings.Query.DefaultK
		}
		resp, err := sys.Service.TopK(ctx, topkMode, topkK)
		exitOnErr("querying leaderboard", err)
		if topkJSON {
			printJSON(resp)
			return
		}
		if resp.Missing {
			fmt.Printf("No %s state available yet.\n", topkMode)
			return
		}
		fmt.Printf("Top %d (%s):\n", topkK, topkMode)
		for i, e := range resp.Entries {
			fmt.Printf("%3d. %s  %d\n", i+1, e.Key, e.Count)
		}
	},
}

func init() {
	rootCmd.AddCommand(topkCmd)
	topkCmd.Flags().StringVar(&topkMode, "mode", leaderboard.ModeApproximate, "approximate or exact")
	topkCmd.Flags().IntVarP(&topkK, "k", "k", 0, "number of keys to return, defaults to query.default_k")
	topkCmd.Flags().BoolVar(&topkRefresh, "refresh", true, "run the stream pipeline before an approximate query")
	topkCmd.Flags().BoolVar(&topkJSON, "json", false, "print the response as json")
}
