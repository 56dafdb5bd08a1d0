package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ahrav/orderflow/internal/api/debug"
	"github.com/ahrav/orderflow/internal/app/pipeline"
	"github.com/ahrav/orderflow/internal/config"
	"github.com/ahrav/orderflow/internal/config/envloader"
	"github.com/ahrav/orderflow/internal/config/fileloader"
	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
	"github.com/ahrav/orderflow/pkg/common/logger"
	"github.com/ahrav/orderflow/pkg/common/otel"
)

var build = "develop"

const serviceType = "orderflow"

func main() {
	// Set the correct number of threads for the service
	_, _ = maxprocs.Set()

	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	ctx := context.Background()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}

			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n",
				r.Message, errorAttrsJSON)
		},
	}

	svcName := fmt.Sprintf("%s-%s", cfg.Telemetry.ServiceName, hostname)
	metadata := map[string]string{
		"service":  svcName,
		"hostname": hostname,
		"app":      serviceType,
		"build":    build,
	}

	log := logger.NewWithMetadata(os.Stdout, parseLevel(cfg.LogLevel), svcName, otel.TraceIDFn(), logEvents, metadata)

	if err := run(ctx, log, cfg, hostname); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidConfiguration):
			log.Error(ctx, "startup", "status", "invalid configuration", "err", err)
		case errors.Is(err, domain.ErrActorFailure):
			log.Error(ctx, "shutdown", "status", "pipeline aborted", "err", err)
		default:
			log.Error(ctx, "shutdown", "status", "pipeline interrupted", "err", err)
		}
		os.Exit(1)
	}
}

// loadConfig layers the environment over the file at path, or over the
// built-in defaults when path is empty.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	var base config.Loader = config.DefaultLoader{}
	if path != "" {
		base = fileloader.NewFileLoader(path)
	}

	cfg, err := envloader.New(base, envloader.DefaultPrefix).Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func run(ctx context.Context, log *logger.Logger, cfg *config.Config, hostname string) error {
	// -------------------------------------------------------------------------
	// GOMAXPROCS
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build)

	// -------------------------------------------------------------------------
	// Start Telemetry Support
	log.Info(ctx, "startup", "status", "initializing telemetry support")

	providers, teardown, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		ExporterEndpoint: cfg.Telemetry.Endpoint,
		Probability:      cfg.Telemetry.SamplingRatio,
		ResourceAttributes: map[string]string{
			"library.language": "go",
			"host.name":        hostname,
		},
		InsecureExporter: cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	defer teardown(ctx)

	tracer := providers.Tracer.Tracer(cfg.Telemetry.ServiceName)

	metrics, err := pipeline.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("creating pipeline metrics: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Debug Service

	if cfg.DebugAddr != "" {
		dbg := &http.Server{
			Addr:              cfg.DebugAddr,
			Handler:           debug.Mux(),
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          logger.NewStdLogger(log, logger.LevelError),
		}
		defer dbg.Close()

		go func() {
			log.Info(ctx, "startup", "status", "debug router started", "host", dbg.Addr)

			if err := dbg.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "shutdown", "status", "debug router closed", "host", dbg.Addr, "msg", err)
			}
		}()
	}

	// -------------------------------------------------------------------------
	// Run Pipeline

	coordinator, err := pipeline.NewCoordinator(cfg,
		pipeline.WithLogger(log),
		pipeline.WithTracer(tracer),
		pipeline.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("creating coordinator: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := coordinator.Run(ctx)
	if err != nil {
		return err
	}

	log.Info(ctx, "shutdown", "status", "pipeline drained",
		"run_id", report.RunID.String(),
		"completed", report.Completed,
		"expected", report.Expected,
		"elapsed", report.Elapsed.String(),
	)
	return nil
}
