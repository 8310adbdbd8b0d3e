package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/couchbase/gocb/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"statebus/internal/bus"
	"statebus/internal/bus/channel"
	"statebus/internal/bus/metrics"
	"statebus/internal/bus/store"
	"statebus/internal/bus/tracing"
	"statebus/internal/medium"
	cbmedium "statebus/internal/medium/couchbase"
	"statebus/internal/medium/memory"
	"statebus/internal/medium/sqlite"
)

type Config struct {
	Medium                    string        `env:"MEDIUM" envDefault:"memory"`
	SQLitePath                string        `env:"SQLITE_PATH" envDefault:"statebus.db"`
	CouchbaseConnectionString string        `env:"COUCHBASE_CONNECTION_STRING" envDefault:"couchbase://localhost"`
	CouchbaseUsername         string        `env:"COUCHBASE_USERNAME" envDefault:"Administrator"`
	CouchbasePassword         string        `env:"COUCHBASE_PASSWORD" envDefault:"password"`
	CouchbaseBucketName       string        `env:"COUCHBASE_BUCKET_NAME" envDefault:"statebus"`
	CouchbaseScopeName        string        `env:"COUCHBASE_SCOPE_NAME" envDefault:"default"`
	CouchbaseCollectionName   string        `env:"COUCHBASE_COLLECTION_NAME" envDefault:"entries"`
	TaskCount                 int           `env:"TASK_COUNT" envDefault:"25"`
	LogLevel                  string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPort               int           `env:"METRICS_PORT" envDefault:"9090"`
	MetricsTimeout            time.Duration `env:"METRICS_TIMEOUT" envDefault:"30s"`
	TracingServiceName        string        `env:"TRACING_SERVICE_NAME" envDefault:"statebus-e2e"`
	TracingServiceVersion     string        `env:"TRACING_SERVICE_VERSION" envDefault:"1.0.0"`
	OTLPEndpoint              string        `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate         float64       `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	config := zap.NewProductionConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metricsRegistry := metrics.NewRegistry()
	metricsRegistry.SetSystemInfo("e2e", time.Now().Format(time.RFC3339))

	metricsServer := metrics.NewServer(
		metrics.ServerConfig{
			Port:    cfg.MetricsPort,
			Timeout: cfg.MetricsTimeout,
		},
		metricsRegistry,
		logger,
	)

	logger.Info("metrics server starting",
		zap.String("endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.MetricsPort)),
	)

	tracer, tracingCleanup, err := tracing.NewTracer(tracing.Config{
		ServiceName:    cfg.TracingServiceName,
		ServiceVersion: cfg.TracingServiceVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingCleanup(shutdownCtx); err != nil {
			logger.Error("failed to cleanup tracing", zap.Error(err))
		}
	}()

	med, mediumCleanup, err := newMedium(cfg)
	if err != nil {
		log.Fatalf("failed to initialize %s medium: %v", cfg.Medium, err)
	}
	defer mediumCleanup()
	logger.Info("durable medium ready", zap.String("kind", cfg.Medium))

	baseChannel, err := channel.New(logger.Named("channel"))
	if err != nil {
		log.Fatalf("failed to create channel: %v", err)
	}
	metricsChannel := channel.NewMetricsChannel(baseChannel, metricsRegistry)
	ch := channel.NewTracedChannel(metricsChannel, tracer)

	newStore := func(prefix string) bus.Store {
		baseStore, err := store.New(store.Config{Prefix: prefix}, med, ch, logger.Named("store"))
		if err != nil {
			log.Fatalf("failed to create store with prefix %s: %v", prefix, err)
		}
		metricsStore := store.NewMetricsStore(baseStore, prefix, metricsRegistry)
		return store.NewTracedStore(metricsStore, prefix, tracer)
	}

	tasks := newStore("tasks::")
	prefs := newStore("prefs::")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metricsServer.Start(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return scenario(gctx, logger, ch, tasks, prefs, cfg.TaskCount)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("error in goroutine", zap.Error(err))
	}
}

// scenario simulates three application modules sharing the substrate: a task
// module persisting published tasks, an audit module observing every storage
// event, and a preference module flipping the theme.
func scenario(ctx context.Context, logger *zap.Logger, ch bus.Channel, tasks, prefs bus.Store, taskCount int) error {
	audit := logger.Named("audit")
	for _, t := range []bus.EventType{bus.StorageChanged, bus.StorageRemoved, bus.StorageCleared} {
		if _, err := ch.Subscribe(t, func(e bus.Event) error {
			audit.Info("storage event",
				zap.String("type", string(e.Type)),
				zap.String("source", e.Source),
				zap.Int64("timestamp", e.Timestamp),
			)
			return nil
		}); err != nil {
			return fmt.Errorf("failed to subscribe audit module: %w", err)
		}
	}

	// Task module: persist every created task under its ID.
	releaseTasks, err := ch.Subscribe(bus.TaskCreated, func(e bus.Event) error {
		payload, ok := e.Payload.(bus.TaskCreatedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Type)
		}
		return tasks.Set(payload.Task.ID, payload.Task)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe task module: %w", err)
	}
	defer releaseTasks()

	for i := 0; i < taskCount; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		task := bus.Task{
			ID:       uuid.NewString(),
			Title:    fmt.Sprintf("task %d", i+1),
			Category: "inbox",
		}
		if err := ch.Publish(bus.New(bus.TaskCreatedPayload{Task: task}, "task-module")); err != nil {
			return fmt.Errorf("failed to publish task: %w", err)
		}
	}
	logger.Info("tasks persisted", zap.Int("count", tasks.Size()))

	// Preference module: flip the theme and broadcast the change.
	if err := prefs.Set("theme", string(bus.ThemeDark)); err != nil {
		logger.Error("failed to persist theme", zap.Error(err))
	}
	if err := ch.Publish(bus.New(bus.ThemeChangedPayload{Theme: bus.ThemeDark}, "preference-module")); err != nil {
		return fmt.Errorf("failed to publish theme change: %w", err)
	}

	// Round-trip the task namespace through export/clear/import.
	exported := tasks.ExportAll()
	cleared, err := tasks.Clear()
	if err != nil {
		logger.Error("failed to clear tasks", zap.Error(err))
	}
	logger.Info("cleared task namespace", zap.Int("clearedKeys", cleared))
	if err := tasks.ImportAll(exported); err != nil {
		logger.Error("failed to re-import tasks", zap.Error(err))
	}
	logger.Info("re-imported task namespace", zap.Int("count", tasks.Size()))

	if err := ch.Publish(bus.New(bus.DataSyncPayload{Timestamp: time.Now().UnixMilli()}, "e2e")); err != nil {
		return fmt.Errorf("failed to publish data sync: %w", err)
	}

	logger.Info("scenario complete",
		zap.Int("activeEventTypes", len(ch.ActiveEventTypes())),
	)

	return nil
}

func newMedium(cfg Config) (medium.Medium, func(), error) {
	switch cfg.Medium {
	case "memory":
		return memory.New(), func() {}, nil
	case "sqlite":
		m, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil
	case "couchbase":
		cluster, bucket, err := newCouchbase(cfg)
		if err != nil {
			return nil, nil, err
		}
		m, err := cbmedium.New(cluster, bucket, cfg.CouchbaseScopeName, cfg.CouchbaseCollectionName)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown medium kind: %s", cfg.Medium)
	}
}

func newCouchbase(config Config) (*gocb.Cluster, *gocb.Bucket, error) {
	cluster, err := gocb.Connect(config.CouchbaseConnectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: config.CouchbaseUsername,
			Password: config.CouchbasePassword,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: 10 * time.Second,
			KVTimeout:      5 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	bucket := cluster.Bucket(config.CouchbaseBucketName)

	if err := bucket.WaitUntilReady(5*time.Second, nil); err != nil {
		return nil, nil, fmt.Errorf("bucket not ready: %w", err)
	}

	return cluster, bucket, nil
}
