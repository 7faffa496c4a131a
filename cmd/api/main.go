package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scholarhub/notify-api/internal/config"
	"github.com/scholarhub/notify-api/internal/handler"
	actorHandler "github.com/scholarhub/notify-api/internal/handler/actor"
	inboxHandler "github.com/scholarhub/notify-api/internal/handler/inbox"
	requestHandler "github.com/scholarhub/notify-api/internal/handler/request"
	"github.com/scholarhub/notify-api/internal/middleware"
	"github.com/scholarhub/notify-api/internal/repository/postgres"
	"github.com/scholarhub/notify-api/internal/router"
	actorService "github.com/scholarhub/notify-api/internal/service/actor"
	endorsementService "github.com/scholarhub/notify-api/internal/service/endorsement"
	inboxService "github.com/scholarhub/notify-api/internal/service/inbox"
	requestService "github.com/scholarhub/notify-api/internal/service/request"
	tokenService "github.com/scholarhub/notify-api/internal/service/token"
	"github.com/scholarhub/notify-api/pkg/auth"
	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/metrics"
	"github.com/scholarhub/notify-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
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

	m := metrics.NewMetrics("notify", "api")

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	inboxRepo := postgres.NewInboxRepository(baseRepo)
	actorRepo := postgres.NewActorRepository(baseRepo)
	requestRepo := postgres.NewEndorsementRequestRepository(baseRepo)
	endorsementRepo := postgres.NewEndorsementRepository(baseRepo)
	recordRepo := postgres.NewRecordRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)
	tokenRepo := postgres.NewTokenRepository(baseRepo)

	// Services
	hasher := security.NewBcryptHasher(0)
	actorSvc := actorService.NewService(actorRepo, userRepo)
	tokenSvc := tokenService.NewService(tokenRepo, userRepo, hasher)
	endorsementSvc := endorsementService.NewService(endorsementRepo, actorRepo)
	inboxSvc := inboxService.NewService(inboxRepo, recordRepo, actorSvc, cfg.Notify.InboxURL, m, l)
	requestSvc := requestService.NewService(
		requestRepo, endorsementRepo, actorRepo, recordRepo, userRepo, cfg.Notify, m, l,
	)

	// HTTP surface
	sessions := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, sessions, userRepo)
	r := router.NewRouter(
		authMiddleware,
		inboxHandler.NewHandler(inboxSvc),
		actorHandler.NewHandler(actorSvc, tokenSvc),
		requestHandler.NewHandler(requestSvc, endorsementSvc),
		handler.NewHandler(db),
		router.Config{
			RateLimitRPS: cfg.RateLimit.RequestsPerSecond,
			RateBurst:    cfg.RateLimit.Burst,
			Timeout:      time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	l.Info("Server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	l.Info("Server exited properly")
}
