// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/turbostat/internal/config"
	"github.com/Thermoquad/turbostat/internal/monitor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	exporterListen   string
	exporterPath     string
	exporterInterval time.Duration
)

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve controller readings as Prometheus metrics",
	Long: `Poll the configured stations at a fixed interval and expose status,
parameter values and link counters on an HTTP endpoint for Prometheus.

Metrics:
  turbostat_up{station}
  turbostat_status{station,code,label}
  turbostat_parameter_value{station,code,name,unit}
  turbostat_model_info{station,model}
  turbostat_parameter_errors_total{station,code}
  turbostat_poll_duration_seconds
  turbostat_frames_sent_total, turbostat_timeouts_total, ...

Examples:
  turbostat exporter --port /dev/ttyUSB0 --station 1,2
  turbostat exporter --config turbostat.yaml --listen :9510`,
	RunE: runExporter,
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&exporterListen, "listen", ":9510", "HTTP listen address")
	exporterCmd.Flags().StringVar(&exporterPath, "path", "/metrics", "Metrics endpoint path")
	exporterCmd.Flags().DurationVar(&exporterInterval, "interval", 5*time.Second, "Poll interval")
}

func applyExporterFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Metrics.Listen = exporterListen
	}
	if flags.Changed("path") {
		cfg.Metrics.Path = exporterPath
	}
	if flags.Changed("interval") {
		cfg.Poll.Interval = exporterInterval
	}
}

func newMetricsMux(rec *monitor.Recorder, path string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(path, rec.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func runExporter(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyExporterFlags(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	session, conn, connInfo, err := openSession(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	rec := monitor.NewRecorder()
	rec.TrackStatistics(session.Statistics())
	poller := monitor.NewPoller(session, cfg.Stations, rec, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           newMetricsMux(rec, cfg.Metrics.Path),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	log.WithFields(logrus.Fields{
		"connection": connInfo,
		"listen":     cfg.Metrics.Listen,
		"path":       cfg.Metrics.Path,
		"stations":   cfg.Stations,
		"interval":   cfg.Poll.Interval,
	}).Info("exporter started")

	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		poller.Run(pollCtx, cfg.Poll.Interval, nil)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err, ok := <-serveErr:
		if ok {
			cancelPoll()
			<-pollDone
			return err
		}
	}

	cancelPoll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	<-pollDone
	return nil
}
