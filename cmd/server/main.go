// server runs the ConnectMe identity backend.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"connectme/backend/internal/audit"
	auditrepo "connectme/backend/internal/audit/repository"
	"connectme/backend/internal/auth"
	"connectme/backend/internal/config"
	"connectme/backend/internal/db"
	"connectme/backend/internal/events"
	interesthandler "connectme/backend/internal/interest/handler"
	interestrepo "connectme/backend/internal/interest/repository"
	"connectme/backend/internal/login"
	loginhandler "connectme/backend/internal/login/handler"
	"connectme/backend/internal/registration"
	registrationhandler "connectme/backend/internal/registration/handler"
	"connectme/backend/internal/security"
	"connectme/backend/internal/server"
	"connectme/backend/internal/session"
	"connectme/backend/internal/telemetry/otel"
	userhandler "connectme/backend/internal/user/handler"
	userrepo "connectme/backend/internal/user/repository"
	"connectme/backend/internal/verification"
	"connectme/backend/internal/verification/sms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.TelemetryEndpoint, "connectme-backend", cfg.TelemetryInsecure)
	if err != nil {
		logger.Fatal("telemetry setup failed", zap.Error(err))
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	interests := interestrepo.NewPostgresRepository(conn)

	hasher := security.NewHasher(cfg.BcryptCost)
	tokenProvider := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	tokenService := auth.NewTokenService(users, tokenProvider)

	var sender verification.CodeSender
	if cfg.SMSAPIKey != "" {
		sender = sms.NewClient(cfg.SMSAPIKey, cfg.SMSBaseURL, cfg.SMSSender)
	} else {
		logger.Warn("SMS_API_KEY unset, verification codes are logged instead of sent")
		sender = sms.NewNopSender(logger)
	}

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), logger)

	producer := events.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic, logger)
	defer producer.Close()

	sessions := session.NewStore(cfg.SessionTTLDuration(),
		func() *registration.Workflow { return registration.NewWorkflow(users, interests, sender) },
		func() *login.Workflow { return login.NewWorkflow(users, hasher, sender) },
	)

	router := server.NewRouter(logger, sessions, tokenService, server.Routes{
		Registration: registrationhandler.New(sessions, users, hasher, auditLogger, producer, logger),
		Login:        loginhandler.New(sessions, tokenService, auditLogger, producer, logger),
		Account:      userhandler.New(users, interests, tokenService, auditLogger, producer, logger),
		Interests:    interesthandler.New(interests, logger),
	})

	srv := server.New(cfg.HTTPAddr, router, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
