package main

import (
	"fmt"
	"net/http"

	"github.com/ledgerkernel/engine/pkg/log"
	"github.com/ledgerkernel/engine/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve Prometheus metrics and health endpoints",
	Long: `Serve-metrics starts an HTTP server exposing /metrics, /health, /ready
and /live, for a process that runs ledgerkernel apply/run in a loop (e.g.
driven by a scheduler) and wants its kernel-level counters and histograms
scraped out-of-band.`,
	RunE: runServeMetrics,
}

func init() {
	serveMetricsCmd.Flags().String("addr", ":9090", "Address to serve metrics and health endpoints on")
}

func runServeMetrics(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	metrics.SetVersion(Version)
	metrics.RegisterComponent("kernel", true, "ready")
	metrics.RegisterComponent("track", true, "ready")
	metrics.RegisterComponent("module_pipeline", true, "ready")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	log.Info(fmt.Sprintf("serving metrics on %s", addr))
	return http.ListenAndServe(addr, mux)
}
