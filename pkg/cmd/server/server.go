package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/api"
	"github.com/racetagger/raceident/pkg/audit"
	natsaudit "github.com/racetagger/raceident/pkg/audit/nats"
	"github.com/racetagger/raceident/pkg/config"
	"github.com/racetagger/raceident/pkg/processing/session"
	"github.com/racetagger/raceident/pkg/profile"
	"github.com/racetagger/raceident/pkg/utils"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the resolution HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.HTTPServerAddr,
		"http-server-addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")
	cmd.Flags().StringVar(&config.LogConfig,
		"log-config",
		"",
		"zapfilter rules narrowing log output (example: \"debug:engine.* info:*\")")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"NATS server receiving audit events (empty: audit disabled)")
	cmd.Flags().StringVar(&config.AuditSubject,
		"audit-subject",
		"raceident",
		"subject prefix for audit events")
	cmd.Flags().BoolVar(&config.WatchProfile,
		"watch-profile",
		false,
		"reload the profile file on change (requires --profile)")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLogger() {
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogConfig != "" {
		opts = append(opts, log.WithFilterRules(config.LogConfig))
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			opts...)
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			opts...)
	}
	log.ResetDefault(logger)
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	setupLogger()
	var telemetry *config.Telemetry

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	waitForRequiredServices()

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(context.Background()); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, closeSink := setupAuditSink()
	defer closeSink()

	manager := session.NewManager(session.WithAuditSink(sink))
	defer manager.Close()

	if config.ProfilePath != "" && config.WatchProfile {
		watcher := profile.NewWatcher(config.ProfilePath, func(prof *profile.Profile) {
			for _, sess := range manager.Sessions() {
				if sess.Sport == prof.Sport {
					sess.Resolver().SetProfile(prof)
				}
			}
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				log.Warn("profile watcher stopped", log.ErrorField(err))
			}
		}()
	}

	apiServer := api.NewServer(manager)
	//nolint:gosec // by design
	server := &http.Server{
		Addr:    config.HTTPServerAddr,
		Handler: h2c.NewHandler(apiServer.Handler(), &http2.Server{}),
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", log.String("addr", config.HTTPServerAddr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	case <-ctx.Done():
		log.Info("Shutting down")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

// setupAuditSink connects the audit fan-out. Without a NATS URL events
// stay in-process (dispatcher without listeners).
func setupAuditSink() (audit.Sink, func()) {
	dispatcher := audit.NewDispatcher("server")
	if config.NatsURL == "" {
		return dispatcher, dispatcher.Close
	}
	conn, err := nats.Connect(config.NatsURL)
	if err != nil {
		log.Warn("could not connect to NATS, audit events stay local",
			log.ErrorField(err))
		return dispatcher, dispatcher.Close
	}
	publisher := natsaudit.NewPublisher(conn,
		natsaudit.WithSubjectPrefix(config.AuditSubject))
	detach := dispatcher.Forward(publisher)
	log.Info("audit events forwarded to NATS", log.String("url", config.NatsURL))
	return dispatcher, func() {
		detach()
		dispatcher.Close()
		publisher.Close()
	}
}

func waitForRequiredServices() {
	var err error
	var timeout time.Duration
	if timeout, err = time.ParseDuration(config.WaitForServices); err != nil {
		log.Warn("invalid duration value. using default",
			log.String("value", config.WaitForServices))
		timeout = 15 * time.Second
	}
	if config.NatsURL == "" {
		return
	}
	if err = utils.WaitForTCP(utils.ExtractFromNatsURL(config.NatsURL), timeout); err != nil {
		log.Warn("NATS not ready", log.ErrorField(err))
	}
}
