package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/config"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/consumer"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/graph"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/httpapi"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/provider"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/repository"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/services"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/logger"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/metrics"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logr := logger.New(cfg.LogLevel)
	logr.Info("starting notification service", slog.String("app", cfg.AppName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	graphStore, err := graph.New(ctx, cfg.Neo4jURL, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		logr.Error("failed to connect graph store", slog.Any("error", err))
		os.Exit(1)
	}
	defer graphStore.Close(context.Background())

	pushProvider, err := provider.New(ctx, cfg.AWSRegion, cfg.IOSPlatformARN, cfg.AndroidPlatformARN, cfg.ProviderTimeout, logr)
	if err != nil {
		logr.Error("failed to set up push provider", slog.Any("error", err))
		os.Exit(1)
	}

	var suppressionCache services.SuppressionCache
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		redisRepo := repository.NewRedisRepository(rdb, cfg.SuppressionTTL)
		defer redisRepo.Close()
		suppressionCache = redisRepo
	}

	var runStore services.FanOutRunStore
	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			logr.Error("failed to connect database", slog.Any("error", err))
			os.Exit(1)
		}
		statusStore, err := repository.NewStatusStore(db, cfg.StatusTable)
		if err != nil {
			logr.Error("failed to set up status store", slog.Any("error", err))
			os.Exit(1)
		}
		runStore = statusStore
	}
	statusUpdater := services.NewStatusUpdater(runStore, logr)

	metricsCollector := metrics.New()
	payloadBuilder := services.NewPayloadBuilder(
		cfg.PushSubject,
		cfg.FollowRequestLocKey,
		cfg.DirectFollowLocKey,
		cfg.GroupCreateLocKey,
	)
	retryCfg := retry.Config{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialBackoff: cfg.RetryInitialBackoff,
		MaxBackoff:     cfg.RetryMaxBackoff,
	}

	lifecycle := services.NewLifecycleEngine(
		graphStore,
		pushProvider,
		suppressionCache,
		metricsCollector,
		logr,
		cfg.SuppressionTTL,
	)
	fanOut := services.NewFanOutEngine(
		graphStore,
		pushProvider,
		lifecycle,
		suppressionCache,
		statusUpdater,
		payloadBuilder,
		metricsCollector,
		logr,
		retryCfg,
	)

	started := time.Now()
	handler := httpapi.NewHandler(fanOut, lifecycle, logr)
	httpSrv := startHTTPServer(cfg.HTTPPort, handler, metricsCollector, logr, started)

	if cfg.PurgeInterval > 0 {
		go runPurgeLoop(ctx, lifecycle, cfg.PurgeInterval, logr)
	}

	if cfg.RabbitURL != "" {
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			logr.Error("failed to connect rabbitmq", slog.Any("error", err))
			os.Exit(1)
		}
		defer conn.Close()

		base := consumer.NewBaseConsumer(
			conn,
			cfg.FanOutQueue,
			cfg.DeadLetterQueue,
			cfg.PrefetchCount,
			cfg.WorkerCount,
			logr,
		)
		fanOutConsumer := consumer.NewFanOutConsumer(base, fanOut, logr, cfg.MaxDeliveries)
		if err := fanOutConsumer.Start(ctx); err != nil {
			logr.Error("fan-out consumer exited", slog.Any("error", err))
		}
	} else {
		<-ctx.Done()
	}

	shutdownHTTP(httpSrv, logr)
	logr.Info("notification service stopped")
}

// runPurgeLoop sweeps disabled endpoints on a fixed interval. An empty sweep
// is normal and logged at debug only.
func runPurgeLoop(ctx context.Context, lifecycle *services.LifecycleEngine, interval time.Duration, logr *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := lifecycle.PurgeDisabled(ctx)
			switch {
			case err == nil:
			case models.CodeOf(err) == models.CodeGraphEndpointNotExist:
				logr.Debug("purge sweep found nothing to delete")
			default:
				logr.Warn("purge sweep failed", slog.Any("error", err))
			}
		}
	}
}

func startHTTPServer(port string, handler *httpapi.Handler, metricsCollector *metrics.Metrics, logr *slog.Logger, started time.Time) *http.Server {
	if port == "" {
		port = "8082"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: httpapi.NewRouter(handler, metricsCollector, started),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("http server error", slog.Any("error", err))
		}
	}()
	return srv
}

func shutdownHTTP(srv *http.Server, logr *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("failed to shutdown http server", slog.Any("error", err))
	}
}
