// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsutil "complaint-workers/internal/common/aws"
	"complaint-workers/internal/common/camunda"
	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/database"
	apperrors "complaint-workers/internal/common/errors"
	httpclient "complaint-workers/internal/common/http"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/observability"
	"complaint-workers/internal/matching/catalog"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/matching/search"
	"complaint-workers/internal/matching/similarity"
	"complaint-workers/internal/matching/text"
	"complaint-workers/internal/matching/ticket"
	"complaint-workers/pkg/registry"

	rc "complaint-workers/internal/workers/catalog/reload-catalog"
	bt "complaint-workers/internal/workers/complaint/build-ticket"
	mc "complaint-workers/internal/workers/complaint/match-complaint"
	nd "complaint-workers/internal/workers/notification/notify-dispatcher"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogSource", cfg.Catalog.Source),
		zap.String("similarity", cfg.Similarity.Backend),
		zap.String("morphology", cfg.Morphology.Backend),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL (catalog table and/or pg_trgm) ---
	var pg *database.PostgresClient
	if cfg.Catalog.Source == config.CatalogSourcePostgres || cfg.Similarity.Backend == config.SimilarityPostgres {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		if cfg.Similarity.Backend == config.SimilarityPostgres {
			if err := pg.EnsureTrigramExtension(ctx); err != nil {
				zapLog.Fatal("pg_trgm extension unavailable", zap.Error(err))
			}
		}
	}

	// --- Elasticsearch (catalog index) ---
	var esClient *database.ElasticsearchClient
	if cfg.Catalog.Source == config.CatalogSourceElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		if ok, err := esClient.IndexExists(ctx, cfg.Catalog.Index); err != nil || !ok {
			zapLog.Warn("catalog index not available", zap.String("index", cfg.Catalog.Index), zap.Error(err))
		}
	}

	// --- Redis (lemma cache) ---
	var redis *database.RedisClient
	if cfg.Morphology.CacheTTL > 0 {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Matching components ---
	analyzer, err := buildAnalyzer(cfg, redis, log)
	if err != nil {
		zapLog.Fatal("morphology analyzer init failed", zap.Error(err))
	}

	source, err := buildSource(cfg, pg, esClient)
	if err != nil {
		zapLog.Fatal("catalog source init failed", zap.Error(err))
	}

	var engine similarity.Engine = similarity.NewLocalEngine()
	if cfg.Similarity.Backend == config.SimilarityPostgres {
		engine = similarity.NewPostgresEngine(pg.GetDB())
	}

	dict, err := text.LoadDictionary(cfg.Dictionaries.Path)
	if err != nil {
		zapLog.Fatal("dictionary load failed", zap.Error(err))
	}
	dictionaries := text.NewDictionaryStore(dict, cfg.Dictionaries.Path)
	if cfg.Dictionaries.Watch && cfg.Dictionaries.Path != "" {
		err := dictionaries.Watch(ctx, func(err error) {
			if err != nil {
				zapLog.Error("dictionary reload failed", zap.Error(err))
				return
			}
			zapLog.Info("dictionary reloaded", zap.String("path", cfg.Dictionaries.Path))
		})
		if err != nil {
			zapLog.Warn("dictionary watch disabled", zap.Error(err))
		}
	}

	cache := catalog.NewCache(source, analyzer, log)
	if _, err := cache.Load(ctx); err != nil {
		// Searches retry the lazy load; SEARCH_FAILED until one succeeds.
		zapLog.Error("initial catalog load failed", zap.Error(err))
	}
	cache.StartAutoReload(ctx, time.Duration(cfg.Catalog.ReloadInterval)*time.Second)

	filter := text.NewNoiseFilter(dictionaries, analyzer, log)
	pipeline := search.NewPipeline(cfg.Matching, cache, filter, engine, obs, log)
	assembler := ticket.NewAssembler(log)

	// --- Workers ---
	activities := loadRegistry(cfg.App.RegistryPath, zapLog)

	var workers []worker.JobWorker
	register := func(taskType string, h camunda.HandlerFunc) {
		if activities != nil {
			if _, ok := activities.Find(taskType); !ok {
				zapLog.Warn("task type missing from activity registry", zap.String("taskType", taskType))
			}
		}
		if jw := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), h, zapLog); jw != nil {
			workers = append(workers, jw)
		}
	}
	timeout := func(taskType string, fallback time.Duration) time.Duration {
		if ms := config.GetWorkerConfig(cfg, taskType).Timeout; ms > 0 {
			return config.GetDuration(ms)
		}
		return fallback
	}

	{
		c := mc.LoadConfig()
		c.Timeout = timeout(mc.TaskType, c.Timeout)
		register(mc.TaskType, mc.NewHandler(c, pipeline, log).Handle)
	}
	{
		c := bt.LoadConfig()
		c.Timeout = timeout(bt.TaskType, c.Timeout)
		register(bt.TaskType, bt.NewHandler(c, assembler, log).Handle)
	}
	{
		c := rc.LoadConfig()
		c.Timeout = timeout(rc.TaskType, c.Timeout)
		register(rc.TaskType, rc.NewHandler(c, cache, dictionaries, log).Handle)
	}
	if config.IsWorkerEnabled(cfg, nd.TaskType) {
		c := nd.FromNotifications(cfg.Notifications)
		c.Timeout = timeout(nd.TaskType, c.Timeout)

		var sesSvc awsutil.SESService
		var snsSvc awsutil.SNSService
		if c.EmailEnabled || c.SMSEnabled {
			awsCfg, err := awsutil.LoadConfig(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("failed to load AWS config", zap.Error(err))
			}
			sesSvc = awsutil.NewSESClient(awsCfg)
			snsSvc = awsutil.NewSNSClient(awsCfg)
		}
		register(nd.TaskType, nd.NewHandler(c, cache, sesSvc, snsSvc, log).Handle)
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		snap := cache.Snapshot()
		if snap == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "catalog not loaded",
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "ready",
			"catalogVersion": snap.Version,
			"catalogEntries": snap.Len(),
			"time":           time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	stop()
	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// loadRegistry returns nil when the registry file is absent or invalid; workers
// still start without it.
func loadRegistry(path string, log *zap.Logger) *registry.ActivityRegistry {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return nil
	}
	if err := reg.Validate(apperrors.KnownCodes()); err != nil {
		log.Error("activity registry invalid", zap.String("path", path), zap.Error(err))
		return nil
	}
	log.Info("activity registry loaded",
		zap.String("version", reg.Version),
		zap.Int("activities", len(reg.Activities)),
	)
	return reg
}

func buildAnalyzer(cfg *config.Config, redis *database.RedisClient, log logger.Logger) (morphology.Analyzer, error) {
	var analyzer morphology.Analyzer
	switch cfg.Morphology.Backend {
	case config.MorphologyRemote:
		client := httpclient.NewClient(cfg.Morphology.RemoteURL, config.GetDuration(cfg.Morphology.Timeout))
		analyzer = morphology.NewRemoteAnalyzer(client)
	default:
		a, err := morphology.NewSnowballAnalyzer(cfg.Morphology.Language)
		if err != nil {
			return nil, err
		}
		analyzer = a
	}

	if redis != nil {
		ttl := time.Duration(cfg.Morphology.CacheTTL) * time.Second
		analyzer = morphology.NewCachedAnalyzer(analyzer, redis.GetClient(), cfg.Morphology.Backend, ttl, log)
	}
	return analyzer, nil
}

func buildSource(cfg *config.Config, pg *database.PostgresClient, es *database.ElasticsearchClient) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceFile:
		return catalog.NewFileSource(cfg.Catalog.FilePath), nil
	case config.CatalogSourceElasticsearch:
		return catalog.NewElasticsearchSource(es.Client, cfg.Catalog.Index), nil
	default:
		return catalog.NewPostgresSource(pg.GetDB(), cfg.Catalog.Table)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
