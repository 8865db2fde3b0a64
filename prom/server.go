package prom

import (
	"net/http"

	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Starts a HTTP server just for Prometheus, for commands that don't run the restapi
func StartStandalonePromServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	st.Logger.Info().Str("addr", st.Settings.ListenAddr).Msg("launching metrics server")

	err := http.ListenAndServe(st.Settings.ListenAddr, mux)
	if err != nil {
		st.Logger.Error().Err(err).Msg("failed to listen for prometheus metrics")
	}
}
