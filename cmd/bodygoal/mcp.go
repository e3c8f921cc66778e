// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs the stdio MCP server and optionally serves Prometheus metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/bodygoal/internal/mcp"
	"github.com/harperreed/bodygoal/internal/metrics"
)

var mcpMetricsAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout and acts for the configured user.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "bodygoal": {
        "command": "bodygoal",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_progress        Progress, trends, projections, and milestones
  set_goal            Create a new active goal
  update_goal         Change an existing goal
  add_measurement     Record a measurement
  list_measurements   List recent measurements
  list_goals          List goals, active first

AVAILABLE RESOURCES:

  bodygoal://progress              Progress report for the active goal
  bodygoal://goal                  The active goal
  bodygoal://measurements/recent   Last 10 measurements

METRICS:

  With --metrics-addr (or "metrics_addr" in config.json) Prometheus metrics
  are served at http://<addr>/metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case <-sigChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		addr := mcpMetricsAddr
		if addr == "" {
			addr = cfg.MetricsAddr
		}
		if addr != "" {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			goalMetrics = metrics.NewManager("bodygoal", "", reg)
			stop := serveMetrics(addr, reg)
			defer stop()
		}

		server, err := mcp.NewServer(repo, cfg.GetUserID(), goalOptions()...)
		if err != nil {
			return err
		}

		log.WithField("user", cfg.GetUserID()).Info("mcp server starting")
		return server.Serve(ctx)
	},
}

// serveMetrics exposes reg over HTTP and returns a function that shuts the server down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnf("metrics server shutdown: %v", err)
		}
	}
}

func init() {
	mcpCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	rootCmd.AddCommand(mcpCmd)
}
