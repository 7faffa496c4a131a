package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog/log"

	"github.com/scholarhub/notify-api/internal/config"
	"github.com/scholarhub/notify-api/internal/email"
	"github.com/scholarhub/notify-api/internal/repository/postgres"
	"github.com/scholarhub/notify-api/internal/search"
	actorService "github.com/scholarhub/notify-api/internal/service/actor"
	endorsementService "github.com/scholarhub/notify-api/internal/service/endorsement"
	notificationService "github.com/scholarhub/notify-api/internal/service/notification"
	pipelineService "github.com/scholarhub/notify-api/internal/service/pipeline"
	"github.com/scholarhub/notify-api/internal/worker"
	"github.com/scholarhub/notify-api/pkg/logger"
	redisbroker "github.com/scholarhub/notify-api/pkg/messaging/redis"
	"github.com/scholarhub/notify-api/pkg/metrics"
)

// WorkerEnv overrides batch tuning per deployment without touching the
// shared config file.
type WorkerEnv struct {
	BatchSize    int           `envconfig:"BATCH_SIZE"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL"`
	HealthPort   string        `envconfig:"HEALTH_PORT" default:"8081"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env WorkerEnv
	if err := envconfig.Process("notify_worker", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to read worker environment")
	}

	l := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.Redis.URL}, l.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("notify", "worker")

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	inboxRepo := postgres.NewInboxRepository(baseRepo)
	actorRepo := postgres.NewActorRepository(baseRepo)
	requestRepo := postgres.NewEndorsementRequestRepository(baseRepo)
	endorsementRepo := postgres.NewEndorsementRepository(baseRepo)
	recordRepo := postgres.NewRecordRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)

	// Services
	actorSvc := actorService.NewService(actorRepo, userRepo)
	endorsementSvc := endorsementService.NewService(endorsementRepo, actorRepo)
	emailSvc := email.NewSMTPService(cfg.SMTP)
	notifier := notificationService.NewService(userRepo, emailSvc, broker, l)
	pipeline := pipelineService.NewService(
		inboxRepo, actorRepo, recordRepo, requestRepo, endorsementRepo, actorSvc, m, l,
	)

	var indexer search.Indexer = search.NopIndexer{}
	if cfg.Search.Host != "" {
		client := meilisearch.New(cfg.Search.Host, meilisearch.WithAPIKey(cfg.Search.APIKey))
		indexer = search.NewMeiliIndexer(client, l)
	}

	batchSize := cfg.Worker.BatchSize
	if env.BatchSize > 0 {
		batchSize = env.BatchSize
	}
	pollInterval := cfg.Worker.PollInterval()
	if env.PollInterval > 0 {
		pollInterval = env.PollInterval
	}

	processor := worker.NewInboxProcessor(
		&baseRepo,
		inboxRepo,
		pipeline,
		endorsementSvc,
		indexer,
		notifier,
		worker.InboxProcessorConfig{
			BatchSize:    batchSize,
			PollInterval: pollInterval,
		},
		l,
		m,
	)

	setupHealthCheck(env.HealthPort, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		l.Info("Shutting down")
		cancel()
	}()

	processor.Start(ctx)
}

func setupHealthCheck(port string, l *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			l.Fatal(err, "Health check server failed")
		}
	}()
}
