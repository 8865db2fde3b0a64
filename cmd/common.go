package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/leaderboard"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	prometheusmetrics "github.com/deathowl/go-metrics-prometheus"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcrowley/go-metrics"
)

// exitOnErr prints the error and exits when err is set.
func exitOnErr(msg string, err error) {
	if err != nil {
		fmt.Printf("Error %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on interrupt or terminate.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// setupKafkaMetrics bridges sarama's go-metrics registry into prometheus, or disables it.
func setupKafkaMetrics() {
	if st.Settings.EnableExtendedKafkaMetrics {
		prometheusClient := prometheusmetrics.NewPrometheusProvider(
			metrics.DefaultRegistry, "leaderboard", "sarama", prometheus.DefaultRegisterer, 1*time.Second)
		go prometheusClient.UpdatePrometheusMetrics()
	} else {
		metrics.UseNilMetrics = true
	}
}

func openSystem() *leaderboard.System {
	kv, err := leaderboard.NewKVFromSettings()
	exitOnErr("creating kv providers", err)
	sys, err := leaderboard.NewSystemFromSettings(kv)
	exitOnErr("initialising leaderboard", err)
	return sys
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	exitOnErr("encoding output", err)
	fmt.Println(string(out))
}

// runPipeline runs once, or on every tick of interval until interrupted.
// In a loop a failed run is logged and retried next tick.
func runPipeline(name string, r pipeline.Runner, interval time.Duration) {
	ctx, cancel := signalContext()
	defer cancel()
	if interval <= 0 {
		res, err := r.Run(ctx)
		exitOnErr("running "+name+" pipeline", err)
		printJSON(res)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		res, err := r.Run(ctx)
		var locked *pipeline.LockedError
		if errors.As(err, &locked) {
			st.Logger.Info().Str("pipeline", name).Msg("previous run still in progress, skipping")
		} else if err != nil {
			st.Logger.Error().Err(err).Str("pipeline", name).Msg("pipeline run failed")
		} else if res.Processed > 0 {
			st.Logger.Debug().Str("pipeline", name).Int("processed", res.Processed).Msg("pipeline run complete")
		}
		select {
		case <-ctx.Done():
			st.Logger.Info().Str("pipeline", name).Msg("stopping")
			return
		case <-ticker.C:
		}
	}
}
