// Package server wires configuration, infrastructure and the HTTP API into a
// runnable process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carepoint/scheduling-api/internal/api"
	"github.com/carepoint/scheduling-api/internal/api/handler"
	"github.com/carepoint/scheduling-api/internal/api/middleware"
	"github.com/carepoint/scheduling-api/internal/core/ports"
	"github.com/carepoint/scheduling-api/internal/core/service"
	"github.com/carepoint/scheduling-api/internal/infrastructure/cache"
	mongodb "github.com/carepoint/scheduling-api/internal/infrastructure/db/mongo"
	redisdb "github.com/carepoint/scheduling-api/internal/infrastructure/db/redis"
	"github.com/carepoint/scheduling-api/internal/infrastructure/http/handlers"
	"github.com/carepoint/scheduling-api/internal/infrastructure/jobs"
	"github.com/carepoint/scheduling-api/internal/infrastructure/queue"
	"github.com/carepoint/scheduling-api/internal/infrastructure/storage"
	"github.com/carepoint/scheduling-api/internal/pkg/config"
)

const (
	appName         = "scheduling-api"
	shutdownTimeout = 15 * time.Second
)

// Server owns every long-lived resource of the API process.
type Server struct {
	cfg        *config.Config
	log        zerolog.Logger
	echo       *echo.Echo
	httpServer *http.Server

	mongoClient *mongo.Client
	redisClient *goredis.Client
	publisher   ports.EventPublisher
	dispatcher  *queue.Dispatcher
	sweeper     *jobs.ReminderSweeper
	limiter     *middleware.RateLimiter
}

// New connects to every configured dependency and builds the router.
// Resources opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *Server, err error) {
	s := &Server{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			s.close(context.Background())
		}
	}()

	tokens, err := service.NewTokenService(service.TokenConfig{
		SigningKey: cfg.JWT.SigningKey,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return nil, err
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: appName})
	if err != nil {
		return nil, err
	}
	s.mongoClient = client

	users := mongodb.NewUserRepository(db)
	appointments := mongodb.NewAppointmentRepository(db)
	messages := mongodb.NewMessageRepository(db)
	reminders := mongodb.NewReminderRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, appointments, messages, reminders); err != nil {
		return nil, err
	}

	checks := []handlers.Check{handlers.MongoCheck(db)}

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		s.redisClient = rdb
		store = redisdb.NewCacheStore(rdb)
		checks = append(checks, handlers.RedisCheck(rdb))
	default:
		store = cache.NewMemoryStore(cfg.Cache.MaxEntries)
	}
	aside := cache.New(store, cfg.Cache.KeyPrefix, log.With().Str("component", "cache").Logger())

	var objects ports.ObjectStorage
	if cfg.Minio.Endpoint != "" {
		m, err := storage.NewMinioStorage(storage.Config{
			Endpoint:      cfg.Minio.Endpoint,
			AccessKey:     cfg.Minio.AccessKey,
			SecretKey:     cfg.Minio.SecretKey,
			Bucket:        cfg.Minio.Bucket,
			UseSSL:        cfg.Minio.UseSSL,
			PublicBaseURL: cfg.Minio.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		objects = m
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, profile picture uploads disabled")
	}

	if cfg.Notify.RabbitMQURL != "" {
		p, err := queue.NewRabbitMQPublisher(queue.RabbitMQConfig{URL: cfg.Notify.RabbitMQURL, Exchange: cfg.Notify.Exchange})
		if err != nil {
			return nil, err
		}
		s.publisher = p
	} else {
		s.publisher = queue.NewLogPublisher(log.With().Str("component", "notifications").Logger())
	}
	s.dispatcher = queue.NewDispatcher(cfg.Notify.Workers, s.publisher, log.With().Str("component", "dispatcher").Logger())

	authSvc := service.NewAuthService(users, tokens, aside, s.dispatcher, cfg.JWT.PasswordResetTTL, log)
	userSvc := service.NewUserService(users, aside, objects, log)
	apptSvc := service.NewAppointmentService(appointments, users, aside, s.dispatcher, log)
	msgSvc := service.NewMessageService(messages, users, aside, s.dispatcher, log)
	remSvc := service.NewReminderService(reminders, appointments, users, aside, s.dispatcher, log)

	s.sweeper = jobs.NewReminderSweeper(cfg.Reminders.SweepSchedule, remSvc, log.With().Str("component", "reminder_sweeper").Logger())
	s.limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	s.echo = api.NewRouter(api.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc),
		Appointments: handler.NewAppointmentHandler(apptSvc),
		Messages:     handler.NewMessageHandler(msgSvc),
		Reminders:    handler.NewReminderHandler(remSvc, apptSvc),
		Health:       handlers.NewHealthHandler(),
		Readiness:    handlers.NewHealthDependenciesHandler(checks...),
	}, api.Options{
		Tokens:             tokens,
		AuthRateLimiter:    s.limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Log:                log,
	})

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	workCtx, stopWork := context.WithCancel(context.Background())
	s.dispatcher.Start(workCtx)
	go s.limiter.Run(workCtx)
	if err := s.sweeper.Start(); err != nil {
		stopWork()
		s.close(context.Background())
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Str("env", s.cfg.Env).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		s.log.Error().Err(serveErr).Msg("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("http server shutdown")
	}
	// requests and sweeps are done; let the dispatcher drain its queues
	s.sweeper.Stop(shutdownCtx)
	stopWork()
	s.close(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// close waits for the dispatcher, whose context must already be cancelled,
// then releases connections.
func (s *Server) close(ctx context.Context) {
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close notification publisher")
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close redis")
		}
	}
	if s.mongoClient != nil {
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			s.log.Warn().Err(err).Msg("disconnect mongo")
		}
	}
	s.log.Info().Msg("shutdown complete")
}
