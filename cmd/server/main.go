package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelbook/internal/api"
	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/domain"
	"hotelbook/internal/events"
	"hotelbook/internal/gateway"
	"hotelbook/internal/logging"
	"hotelbook/internal/metrics"
	"hotelbook/internal/models"
	"hotelbook/internal/notify"
	"hotelbook/internal/repository"
	"hotelbook/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for the given password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Fatal error: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(base, "server-main")

	rooms, err := loadRooms(logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(base, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateRepo := initStateRepository(ctx, cfg, base)
	if redisClient != nil {
		defer redisClient.Close()
	}

	payments, err := gateway.New(cfg.Payment, logging.Component(base, "gateway"))
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	subscribeAuditLog(eventBus, logging.Component(base, "events"))
	if err := initNotifier(cfg, eventBus, base); err != nil {
		return err
	}

	catalog := service.NewRoomCatalog(rooms)
	drafts := service.NewDraftService(stateRepo, catalog, cfg.Booking.MaxStayNights, logging.Component(base, "drafts"))
	auth := service.NewAuthService(db, cfg.Session, logging.Component(base, "auth"))
	if err := auth.SeedUsers(ctx, cfg.Users); err != nil {
		logger.Error().Err(err).Msg("seed users")
		return err
	}
	wizard := service.NewWizard(drafts, db, payments, eventBus, cfg.Booking, logging.Component(base, "wizard"))

	checks := []api.ReadinessCheck{{Name: "database", Check: db.Ready}}
	if redisClient != nil {
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return repository.Ping(ctx, redisClient)
		}})
	}

	httpServer, err := api.NewHTTPServer(cfg, api.Deps{
		Rooms:  catalog,
		Drafts: drafts,
		Wizard: wizard,
		Auth:   auth,
		Repo:   db,
		Checks: checks,
	}, logging.Component(base, "http"))
	if err != nil {
		return err
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logging.Component(base, "backup"))
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	return serve(ctx, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, closer, nil
}

func loadRooms(logger *zerolog.Logger) ([]models.Room, error) {
	roomsPath := os.Getenv("ROOMS_PATH")
	if roomsPath == "" {
		roomsPath = "configs/rooms.yaml"
	}
	roomsData, err := os.ReadFile(roomsPath)
	if err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("read rooms")
		return nil, err
	}

	var roomsConfig struct {
		Rooms []models.Room `yaml:"rooms"`
	}
	if err := yaml.Unmarshal(roomsData, &roomsConfig); err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("parse rooms")
		return nil, err
	}

	if err := config.ValidateRooms(roomsConfig.Rooms); err != nil {
		logger.Error().Err(err).Msg("rooms validation failed")
		return nil, err
	}

	return roomsConfig.Rooms, nil
}

// initStateRepository uses Redis with an in-memory fallback when Redis is
// configured, and memory alone otherwise.
func initStateRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.StateRepository) {
	memoryRepo := repository.NewMemoryStateRepository(cfg.Booking.DraftTTL)
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, keeping drafts in memory")
		return nil, memoryRepo
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, drafts fall back to memory until it recovers")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	primary := repository.NewRedisStateRepository(redisClient, cfg.Booking.DraftTTL)
	return redisClient, repository.NewFailoverStateRepository(primary, memoryRepo, logging.Component(logger, "state"))
}

func initNotifier(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) error {
	if cfg.Telegram.BotToken == "" {
		logger.Info().Msg("telegram bot token not set, manager notifications disabled")
		return nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("create telegram bot api")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	notify.NewManagerNotifier(botAPI, cfg.Telegram.ManagerChats, logging.Component(logger, "notify")).Subscribe(bus)
	logger.Info().Str("bot", botAPI.Self.UserName).Int("chats", len(cfg.Telegram.ManagerChats)).Msg("manager notifications enabled")
	return nil
}

func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", payload.BookingID).
			Str("visitor_id", payload.VisitorID).
			Int64("room_id", payload.RoomID).
			Int64("total", payload.Total).
			Str("error", payload.Error).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(events.EventBookingCreated, handler)
	bus.Subscribe(events.EventPaymentFailed, handler)
	bus.Subscribe(events.EventBookingViewed, handler)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
