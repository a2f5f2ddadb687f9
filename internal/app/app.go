package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-enricher/internal/cfg"
	v1Http "github.com/DRSN-tech/catalog-enricher/internal/delivery/v1/http"
	"github.com/DRSN-tech/catalog-enricher/internal/infrastructure/embedding"
	"github.com/DRSN-tech/catalog-enricher/internal/infrastructure/imagegen"
	kafkaInfra "github.com/DRSN-tech/catalog-enricher/internal/infrastructure/kafka"
	"github.com/DRSN-tech/catalog-enricher/internal/infrastructure/source"
	s3Repo "github.com/DRSN-tech/catalog-enricher/internal/repository/minio"
	"github.com/DRSN-tech/catalog-enricher/internal/repository/pgdb"
	qdrantRepo "github.com/DRSN-tech/catalog-enricher/internal/repository/qdrant"
	"github.com/DRSN-tech/catalog-enricher/internal/repository/redis"
	"github.com/DRSN-tech/catalog-enricher/internal/usecase"
	"github.com/DRSN-tech/catalog-enricher/pkg/clients"
	"github.com/DRSN-tech/catalog-enricher/pkg/closer"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
	"github.com/DRSN-tech/catalog-enricher/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// RunEnricher выполняет один прогон конвейера обогащения: загрузка батча,
// обработка каждого товара, выгрузка outbox и запись отчёта. Процесс
// завершается сам, не дожидаясь сигналов, но SIGINT/SIGTERM прерывают прогон
// после текущего товара.
func RunEnricher() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initPGDB(logger, cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		os.Exit(1)
	}

	minioCtx, minioCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		logger.Errorf(err, "failed to initialize MinIO bucket")
		os.Exit(1)
	}
	minioCancel()

	assetRepo := s3Repo.NewAssetRepo(minioClient, cfg.Minio)

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		logger.Errorf(err, "failed to initialize qdrant")
		os.Exit(1)
	}
	defer qdrantClient.Client.Close()

	qdrantCtx, qdrantCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
		qdrantCancel()
		logger.Errorf(err, "failed to initialize qdrant collection")
		os.Exit(1)
	}
	qdrantCancel()

	embRepo := qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)

	redisClient := clients.NewRedisClient(cfg.Redis)
	defer redisClient.Client.Close()

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(redisCtx); err != nil {
		redisCancel()
		logger.Errorf(err, "failed to connect to redis")
		os.Exit(1)
	}
	redisCancel()

	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, logger)

	embedder, err := embedding.NewGeminiEmbedder(ctx, cfg.Embedding)
	if err != nil {
		logger.Errorf(err, "failed to initialize embedding client")
		os.Exit(1)
	}
	defer embedder.Close()

	imageGen := imagegen.NewHuggingFaceClient(cfg.ImageGen, logger)

	producer, err := kafkaInfra.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		logger.Errorf(err, "failed to ensure kafka topic")
		os.Exit(1)
	}

	catalogRepo := pgdb.NewCatalogRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)
	batchSource := source.NewFileSource(cfg.Pipeline, logger)

	enrichmentUC := usecase.NewEnrichmentUC(
		batchSource,
		embedder,
		imageGen,
		assetRepo,
		catalogRepo,
		outboxRepo,
		embRepo,
		cacheRepo,
		db.Pool,
		cfg.Pipeline,
		cfg.Embedding.Model,
		logger,
	)

	report, runErr := enrichmentUC.Run(ctx)
	if report != nil {
		if err := writeReport(cfg.Pipeline.ReportPath, report); err != nil {
			logger.Warnf("failed to write batch report: %v", err)
		}
	}
	if runErr != nil {
		logger.Errorf(runErr, "enrichment run failed")
		os.Exit(1)
	}

	// События уже закоммичены вместе с товарами, осталось дослать их в Kafka.
	worker := kafkaInfra.NewOutboxWorker(outboxRepo, producer, logger)
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err := worker.Drain(drainCtx); err != nil {
		logger.Warnf("failed to drain outbox: %v", err)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}

// RunAPI поднимает читающий HTTP API каталога и фонового воркера outbox.
func RunAPI() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	cl := closer.NewCloser(5 * time.Second)

	db, err := initPGDB(logger, cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize database")
		os.Exit(1)
	}
	cl.Add(func(_ context.Context) error {
		db.Close()
		return nil
	})

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		logger.Errorf(err, "failed to initialize qdrant")
		os.Exit(1)
	}
	cl.Add(func(_ context.Context) error {
		return qdrantClient.Client.Close()
	})

	embRepo := qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)

	redisClient := clients.NewRedisClient(cfg.Redis)
	cl.Add(func(_ context.Context) error {
		return redisClient.Client.Close()
	})

	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(redisCtx); err != nil {
		redisCancel()
		logger.Errorf(err, "failed to connect to redis")
		os.Exit(1)
	}
	redisCancel()

	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, logger)
	catalogRepo := pgdb.NewCatalogRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)

	producer, err := kafkaInfra.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		os.Exit(1)
	}
	cl.Add(func(_ context.Context) error {
		return producer.Close()
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	worker := kafkaInfra.NewOutboxWorker(outboxRepo, producer, logger)
	worker.Start(workerCtx)
	cl.Add(func(_ context.Context) error {
		workerCancel()
		worker.Stop()
		return nil
	})

	catalogUC := usecase.NewCatalogUC(catalogRepo, embRepo, cacheRepo, logger)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(catalogUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	cl.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := cl.Close(shutdownCtx); err != nil {
		logger.Warnf("shutdown finished with errors: %v", err)
	}

	logger.Infof("Application shutdown complete")
	if appErr != nil {
		os.Exit(1)
	}
}

func writeReport(path string, report *usecase.BatchReport) error {
	if path == "" {
		return nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
