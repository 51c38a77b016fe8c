package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zapflowhq/zapflow/pkg/adapters"
	"github.com/zapflowhq/zapflow/pkg/engine"
	"github.com/zapflowhq/zapflow/pkg/eventbus"
	"github.com/zapflowhq/zapflow/pkg/events"
	"github.com/zapflowhq/zapflow/pkg/metrics"
	"github.com/zapflowhq/zapflow/pkg/otelhelper"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/protocol"
	"github.com/zapflowhq/zapflow/pkg/registry"
	"github.com/zapflowhq/zapflow/pkg/sandbox"
	"github.com/zapflowhq/zapflow/pkg/scheduler"
	"github.com/zapflowhq/zapflow/pkg/triggers/schedule"
)

const (
	defaultSweepInterval  = 5 * time.Second
	cronReloadInterval    = time.Minute
	metricsShutdownGrace  = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

type WorkerConfig struct {
	ID              string
	Persistence     persistence.Persistence
	EventBus        eventbus.EventBus
	Deadlines       scheduler.DeadlineIndex
	Registry        *registry.Registry
	ChannelEndpoint string
	RedisURL        string
	MetricsAddr     string
	SweepInterval   time.Duration
	Logger          *slog.Logger
}

// WorkerManager runs one worker process: the execution engine fed by inbound
// events from the bus, the timeout scheduler, and the cron trigger runner.
type WorkerManager struct {
	cfg    WorkerConfig
	logger *slog.Logger
}

func NewWorkerManager(cfg WorkerConfig) *WorkerManager {
	return &WorkerManager{
		cfg:    cfg,
		logger: cfg.Logger.With("module", "zapflow-worker"),
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps, err := w.buildDependencies(runCtx)
	if err != nil {
		return err
	}

	m := metrics.New()

	tracer, err := otelhelper.NewTracer(runCtx, "zapflow-worker")
	if err != nil {
		w.logger.WarnContext(runCtx, "Tracing disabled", "error", err)
	}

	eng := engine.New(engine.Config{
		Persistence:  w.cfg.Persistence,
		Registry:     w.cfg.Registry,
		EventBus:     w.cfg.EventBus,
		Deadlines:    w.cfg.Deadlines,
		Dependencies: deps,
		Metrics:      m,
		Tracer:       tracer,
		Logger:       w.logger,
	})

	sched := scheduler.New(w.cfg.Persistence, eng, w.cfg.Deadlines, w.cfg.SweepInterval, m, w.logger)
	cronRunner := schedule.NewRunner(w.cfg.Persistence, eng, w.logger)

	err = w.cfg.EventBus.Handle(events.InboundReceivedEvent, func(ctx context.Context, event any) error {
		inbound, ok := event.(*events.InboundReceived)
		if !ok {
			w.logger.ErrorContext(ctx, "Invalid event type for InboundReceived")

			return nil
		}

		return eng.ProcessInbound(ctx, inbound.Event)
	})
	if err != nil {
		return err
	}

	err = w.cfg.EventBus.Subscribe(runCtx)
	if err != nil {
		return err
	}

	go func() {
		err := sched.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(runCtx, "Timeout scheduler stopped", "error", err)
		}
	}()

	go func() {
		err := cronRunner.Start(runCtx, cronReloadInterval)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(runCtx, "Schedule runner stopped", "error", err)
		}
	}()

	metricsServer := w.startMetricsServer(m)

	w.logger.InfoContext(runCtx, "Worker started", "workerId", w.cfg.ID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(runCtx, "Shutting down worker")
	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), metricsShutdownGrace)
		defer shutdownCancel()

		err := metricsServer.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error("Failed to shut down metrics server", "error", err)
		}
	}

	return nil
}

func (w *WorkerManager) buildDependencies(ctx context.Context) (protocol.Dependencies, error) {
	var channel protocol.ChannelAdapter
	if w.cfg.ChannelEndpoint != "" {
		channel = adapters.NewWebhookChannel(w.cfg.ChannelEndpoint, w.logger)
	} else {
		channel = adapters.NewLogChannel(w.logger)
	}

	var labels protocol.LabelService
	if w.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(w.cfg.RedisURL)
		if err != nil {
			return protocol.Dependencies{}, err
		}

		labels = adapters.NewRedisLabels(redis.NewClient(opts))
	} else {
		labels = adapters.NewMemoryLabels()
	}

	return protocol.Dependencies{
		Logger:     w.logger,
		Channel:    channel,
		Labels:     labels,
		Media:      adapters.NewHTTPMediaResolver(),
		Sandbox:    sandbox.NewExprSandbox(),
		HTTPClient: &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

func (w *WorkerManager) startMetricsServer(m *metrics.Metrics) *http.Server {
	if w.cfg.MetricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{Addr: w.cfg.MetricsAddr, Handler: mux}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Error("Metrics server stopped", "error", err)
		}
	}()

	return server
}
