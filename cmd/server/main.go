// Command server runs the barber-shop booking API.
//
// Startup order: env → config → logging → timezone → database → tracing →
// assistant/notifier collaborators → HTTP router → serve. Shutdown is
// graceful: SIGINT/SIGTERM drains in-flight requests before exit.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-barber-backend/docs"
	"github.com/tbourn/go-barber-backend/internal/ai"
	"github.com/tbourn/go-barber-backend/internal/config"
	"github.com/tbourn/go-barber-backend/internal/domain"
	httpapi "github.com/tbourn/go-barber-backend/internal/http"
	"github.com/tbourn/go-barber-backend/internal/notify"
	"github.com/tbourn/go-barber-backend/internal/observability"
	"github.com/tbourn/go-barber-backend/internal/repo"
	"github.com/tbourn/go-barber-backend/internal/services"
	"github.com/tbourn/go-barber-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// unavailableGenerator stands in when no Gemini API key is configured. Every
// call errors, which the chat service turns into its retry prompt, so the
// transactional endpoints keep working without an assistant.
type unavailableGenerator struct{}

func (unavailableGenerator) Reply(context.Context, string, []domain.ConversationTurn, string) (string, error) {
	return "", errors.New("assistant generator not configured")
}

// @title           Barber Booking API
// @version         1.0
// @description     Slot availability, reservations and a chat-driven booking assistant for a barber shop.
// @BasePath        /api/v1
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid TIMEZONE")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	shutdownOTel, err := observability.SetupOTel(context.Background(), cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	var generator services.Generator = unavailableGenerator{}
	if cfg.Assistant.APIKey != "" {
		gem, err := ai.NewGeminiClient(context.Background(), cfg.Assistant.APIKey, cfg.Assistant.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("create assistant client")
		}
		defer func() { _ = gem.Close() }()
		generator = gem
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set; chat replies degrade to the retry prompt")
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	}

	bookingSvc := services.NewBookingService(db, loc, notifier)
	chatSvc := services.NewChatService(db, bookingSvc, generator)
	if cfg.Assistant.Timeout > 0 {
		chatSvc.GenerateTimeout = cfg.Assistant.Timeout
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, bookingSvc, chatSvc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Str("timezone", loc.String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
