package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/config"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/handlers"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/server"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfg := config.NewConfig()
	logger := newLogger(cfg)
	zlog.Logger = logger

	if err := cfg.Validate(); err != nil {
		if !cfg.GetAllowTestModes() {
			logger.Fatal().Err(err).Msg("invalid configuration")
		}
		logger.Warn().Err(err).Msg("configuration incomplete, continuing because test modes are enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := newStore(ctx, cfg, logger)
	defer closeStore()

	// Initialize WhatsApp service
	var gateway domain.WhatsAppService
	var whatsappService *services.WhatsAppService
	if cfg.GetWhatsAppEnabled() {
		var err error
		revokeAfter := time.Duration(cfg.GetOTPExpiryMinutes()) * time.Minute
		whatsappService, err = services.NewWhatsAppService(ctx, cfg.GetWhatsAppStorePath(), revokeAfter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize WhatsApp service")
		}
		gateway = whatsappService
	} else {
		logger.Warn().Msg("WHATSAPP_ENABLED=false, codes will not be delivered")
	}

	var limiter domain.SendLimiter
	if addr := cfg.GetRedisAddr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.GetRedisPassword(), DB: cfg.GetRedisDB()})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis not reachable, send limiter will fail open")
		}
		limiter = services.NewRedisSendLimiter(rdb, time.Hour, cfg.GetSendLimitPerHour())
	}

	phones := services.NewPhoneNormalizer(cfg.GetDefaultCountryCode())
	ledger := services.NewOTPLedger(store, time.Duration(cfg.GetOTPExpiryMinutes())*time.Minute, cfg.GetOTPMaxAttempts(), cfg.GetDemoOTPCode(), logger)
	dispatch := services.NewDispatchAdapter(gateway, cfg.GetDispatchTimeout(), logger)
	identity := services.NewIdentityResolver(store)
	plans := services.NewPlanAssignor(store, cfg.GetTrialDays(), cfg.GetInactivityDays())
	tokens := services.NewTokenManager(cfg.GetJWTSecret(), cfg.GetJWTIssuer(), cfg.GetAccessTTL(), cfg.GetRefreshTTL())
	sessions := services.NewSessionIssuer(tokens, logger)

	auth := services.NewAuthService(phones, ledger, dispatch, identity, plans, sessions, limiter, services.AuthSettings{
		AllowTestModes: cfg.GetAllowTestModes(),
		TestBypassCode: cfg.GetTestBypassCode(),
	}, logger)

	if whatsappService != nil {
		botHandler := handlers.NewBotHandler(auth, dispatch, logger).WithLIDResolver(whatsappService)
		whatsappService.AddEventHandler(botHandler.HandleMessage)
	}

	srv := server.New(cfg.GetHTTPAddr(), cfg.GetCORSOrigins(), logger,
		handlers.NewHealthHandler(time.Now()),
		handlers.NewOTPHandler(auth, dispatch, cfg),
		handlers.NewSessionHandler(tokens),
		handlers.NewMessageHandler(dispatch, phones, cfg),
	)

	go func() {
		logger.Info().Str("addr", cfg.GetHTTPAddr()).Msg("REST API listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	if whatsappService != nil {
		whatsappService.Disconnect()
	}
	logger.Info().Msg("shutdown")
}

func newLogger(cfg domain.ConfigService) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.GetLogFormat() == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "wa-otp-auth").Logger()
}

// newStore picks postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func newStore(ctx context.Context, cfg domain.ConfigService, logger zerolog.Logger) (domain.Store, func()) {
	dbService, err := services.NewDatabaseService(ctx, cfg.GetDatabaseURL())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database service")
	}
	if !dbService.Available() {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		return services.NewMemoryStore(), func() {}
	}

	store, err := services.NewPostgresStore(ctx, dbService)
	if err != nil {
		dbService.Close()
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Msg("connected to PostgreSQL")
	return store, func() { dbService.Close() }
}
