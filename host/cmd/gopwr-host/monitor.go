package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gopwr/host/monitor"
	"gopwr/host/profile"
	"gopwr/host/serial"
)

var monitorCmd = newMonitorCmd()

var (
	monitorDevice      string
	monitorBaud        int
	monitorProfilePath string
	monitorArchivePath string
	monitorMetricsAddr string
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch a board's telemetry link",
		Long: `Monitor opens the telemetry UART and decodes the board's record
stream. With a profile, every commit report and rail sample is checked
against what the board is supposed to do; disagreements are logged and
counted. Runs until interrupted.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMonitor()
		},
	}
	cmd.Flags().StringVarP(&monitorDevice, "device", "d", "/dev/ttyACM0", "serial device path")
	cmd.Flags().IntVarP(&monitorBaud, "baud", "b", 115200, "baud rate, matching the firmware UART")
	cmd.Flags().StringVarP(&monitorProfilePath, "profile", "p", "", "board profile to check reports against")
	cmd.Flags().StringVarP(&monitorArchivePath, "archive", "a", "", "capture the session to a CBOR archive file")
	cmd.Flags().StringVarP(&monitorMetricsAddr, "metrics", "m", "", "expose Prometheus metrics on this address (e.g. :9100)")

	return cmd
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor() error {
	log := newLogger()

	var prof *profile.Profile
	if monitorProfilePath != "" {
		p, err := profile.Load(monitorProfilePath)
		if err != nil {
			return err
		}
		prof = p
		log.Info().Str("board", p.Board).Str("chip", p.Chip).Str("supply", p.Supply).
			Msg("profile loaded")
	}

	cfg := serial.DefaultConfig(monitorDevice)
	cfg.Baud = monitorBaud
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(reg)

	m := monitor.New(monitor.Config{
		Port:    port,
		Profile: prof,
		Logger:  log,
		Metrics: metrics,
	})

	if monitorArchivePath != "" {
		arc, err := monitor.CreateArchive(monitorArchivePath, m.Session(), prof)
		if err != nil {
			port.Close()
			return err
		}
		defer arc.Close()
		m.SetArchive(arc)
		log.Info().Str("path", monitorArchivePath).Msg("archiving session")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.Run(ctx)
	})

	if monitorMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: monitorMetricsAddr, Handler: mux}

		g.Go(func() error {
			log.Info().Str("addr", monitorMetricsAddr).Msg("metrics listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
