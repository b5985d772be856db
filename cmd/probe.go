package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/niktheblak/web-common/pkg/auth"
	"github.com/niktheblak/web-common/pkg/graceful"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/niktheblak/motion-probe/internal/console"
	"github.com/niktheblak/motion-probe/internal/metrics"
	"github.com/niktheblak/motion-probe/internal/probe"
	"github.com/niktheblak/motion-probe/internal/receiver"
	"github.com/niktheblak/motion-probe/internal/server"
	"github.com/niktheblak/motion-probe/internal/service"
	"github.com/niktheblak/motion-probe/internal/session"
)

type probeConfig struct {
	Port             int
	Duration         time.Duration
	Host             string
	Timeout          time.Duration
	BufferSize       int
	RegisterPayload  string
	RegisterInterval time.Duration
	ServiceName      string
	CheckService     bool
	MetricsPort      int
	MetricsTokens    []string
}

func loadProbeConfig(args []string) (probeConfig, error) {
	port, duration, err := parseArgs(args, viper.GetInt("port"), viper.GetInt("duration"))
	if err != nil {
		return probeConfig{}, err
	}
	if port < 1 || port > 65534 {
		return probeConfig{}, fmt.Errorf("%w: port %d out of range 1-65534", ErrInvalidArgument, port)
	}
	if duration <= 0 {
		return probeConfig{}, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidArgument, duration)
	}
	return probeConfig{
		Port:             port,
		Duration:         time.Duration(duration) * time.Second,
		Host:             viper.GetString("register.host"),
		Timeout:          viper.GetDuration("receive.timeout"),
		BufferSize:       viper.GetInt("receive.buffer"),
		RegisterPayload:  viper.GetString("register.payload"),
		RegisterInterval: viper.GetDuration("register.interval"),
		ServiceName:      viper.GetString("service.name"),
		CheckService:     viper.GetBool("service.check"),
		MetricsPort:      viper.GetInt("metrics.port"),
		MetricsTokens:    viper.GetStringSlice("metrics.token"),
	}, nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadProbeConfig(args)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	printer := console.New(console.Config{
		Out:     cmd.OutOrStdout(),
		Service: cfg.ServiceName,
		Port:    cfg.Port,
	})
	if cfg.CheckService {
		checker := service.New(service.Config{
			Name:   cfg.ServiceName,
			Logger: logger,
		})
		if err := checkService(ctx, checker, printer, logger); err != nil {
			return err
		}
	}
	logger.LogAttrs(
		ctx,
		slog.LevelInfo,
		"Starting motion probe",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.Duration("duration", cfg.Duration),
		slog.Duration("timeout", cfg.Timeout),
		slog.Duration("register_interval", cfg.RegisterInterval),
	)
	collector := metrics.NewCollector()
	if cfg.MetricsPort > 0 {
		var authenticator auth.Authenticator
		if len(cfg.MetricsTokens) > 0 {
			logger.Info("Using authentication for metrics", "tokens", len(cfg.MetricsTokens))
			authenticator = auth.Static(cfg.MetricsTokens...)
		} else {
			logger.Info("Not using authentication for metrics")
			authenticator = auth.AlwaysAllow()
		}
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		wait := serveMetrics(metricsCtx, fmt.Sprintf(":%d", cfg.MetricsPort), server.New(collector.Gatherer(), authenticator, logger), logger)
		defer func() {
			stopMetrics()
			if err := wait(); err != nil {
				logger.LogAttrs(context.Background(), slog.LevelError, "Metrics server failed", slog.Any("error", err))
			}
		}()
	}
	recv, err := receiver.Listen(receiver.Config{
		Host:             cfg.Host,
		Port:             cfg.Port,
		Timeout:          cfg.Timeout,
		BufferSize:       cfg.BufferSize,
		RegisterPayload:  []byte(cfg.RegisterPayload),
		RegisterInterval: cfg.RegisterInterval,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer recv.Close()
	printer.Header(cfg.Duration)
	_, err = probe.Run(ctx, probe.Config{
		Source: recv,
		Tracker: session.New(session.Config{
			Logger:   logger,
			Recorder: collector,
		}),
		Printer:  printer,
		Duration: cfg.Duration,
		Logger:   logger,
		Metrics:  collector,
	})
	return err
}

// checkService returns an error only when the service is known to be inactive
func checkService(ctx context.Context, checker *service.Checker, printer *console.Printer, logger *slog.Logger) error {
	err := checker.Check(ctx)
	switch {
	case err == nil:
		printer.ServiceStatus(true)
	case errors.Is(err, service.ErrStatusCheckFailed):
		printer.StatusUnknown(err)
		logger.LogAttrs(ctx, slog.LevelWarn, "Could not check service status", slog.String("service", checker.Name()), slog.Any("error", err))
	default:
		printer.ServiceStatus(false)
		return err
	}
	return nil
}

// serveMetrics runs the metrics HTTP server until ctx ends. The returned
// function waits for the shutdown to complete.
func serveMetrics(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) func() error {
	shutdown := &graceful.Shutdown{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ShutdownTimeout: 5 * time.Second,
	}
	done := make(chan error, 1)
	go func() {
		logger.LogAttrs(ctx, slog.LevelInfo, "Starting metrics server", slog.String("addr", addr))
		done <- shutdown.Serve(ctx)
	}()
	return func() error {
		return <-done
	}
}

func init() {
	rootCmd.Flags().Int("port", receiver.DefaultPort, "motion service UDP port; data is received on port+1")
	rootCmd.Flags().Int("duration", 10, "session duration in seconds")
	rootCmd.Flags().String("register.host", "localhost", "motion service host")
	rootCmd.Flags().String("register.payload", "register", "registration payload")
	rootCmd.Flags().Duration("register.interval", receiver.DefaultRegisterInterval, "registration renewal interval")
	rootCmd.Flags().Duration("receive.timeout", receiver.DefaultTimeout, "receive wait before reporting no data")
	rootCmd.Flags().Int("receive.buffer", receiver.DefaultBufferSize, "receive buffer size in bytes")
	rootCmd.Flags().Bool("service.check", true, "check that the service is active before listening")
	rootCmd.Flags().Int("metrics.port", 0, "serve Prometheus metrics on this port (0 disables)")
	rootCmd.Flags().StringSlice("metrics.token", nil, "allowed bearer tokens for the metrics endpoint")

	cobra.CheckErr(viper.BindPFlags(rootCmd.Flags()))
}
