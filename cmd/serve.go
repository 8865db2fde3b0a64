package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/leaderboard"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/restapi"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/spf13/cobra"
)

var serveSchedule bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch the leaderboard server",
	Long: `Starts the HTTP server for queries, publishing and on demand pipeline runs.

With --schedule both pipelines also run in the background at schedule.stream_interval and
schedule.batch_interval.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		setupKafkaMetrics()

		sys := openSystem()
		defer sys.Close()
		q, err := leaderboard.NewQuerierFromSettings(sys.Service)
		exitOnErr("creating query cache", err)
		ev, err := events.NewEventsFromSettings(ctx, sys.Store)
		exitOnErr("creating publisher", err)

		if serveSchedule {
			streamEvery, err := time.ParseDuration(st.Settings.Schedule.StreamInterval)
			exitOnErr("reading stream interval", err)
			batchEvery, err := time.ParseDuration(st.Settings.Schedule.BatchInterval)
			exitOnErr("reading batch interval", err)
			go runPipeline("stream", sys.Stream, streamEvery)
			go runPipeline("batch", sys.Batch, batchEvery)
		}

		server := restapi.NewServer(sys, q, ev)
		defer server.Stop()
		httpServer := &http.Server{Addr: st.Settings.ListenAddr, Handler: server.Router}
		go func() {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
		st.Logger.Info().Str("addr", st.Settings.ListenAddr).Msg("listening")
		err = httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			exitOnErr("serving", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", false, "run both pipelines in the background")
}
