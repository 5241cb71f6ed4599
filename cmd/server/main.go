package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/app"
	"github.com/Freeeeeet/consultation_scheduler/internal/config"
	"github.com/Freeeeeet/consultation_scheduler/internal/controller"
	"github.com/Freeeeeet/consultation_scheduler/internal/notify"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting consultation scheduler",
		zap.Bool("bot_enabled", cfg.BotEnabled()),
		zap.Duration("status_refresh_interval", cfg.StatusRefreshInterval),
		zap.String("timezone", cfg.Location.String()),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	repo := repository.New(pool)
	policy := service.RolePolicy{}

	var (
		botInstance *bot.Bot
		notifier    service.Notifier = service.NopNotifier{}
	)
	if cfg.BotEnabled() {
		botInstance, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifier = notify.NewTelegramNotifier(botInstance, repo.Users, cfg.Location, logger)
	}

	userService := service.NewUserService(repo, policy, logger)
	bookingService := service.NewBookingService(repo, policy, notifier, logger)
	eventService := service.NewEventService(repo, policy, notifier, logger)

	scheduler := app.NewScheduler(eventService, cfg.StatusRefreshInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if botInstance == nil {
		logger.Info("TELEGRAM_TOKEN is not set, running without bot")
		<-ctx.Done()
		return nil
	}

	botController := controller.NewBotController(botInstance, userService, bookingService, eventService, cfg.Location, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		return err
	}

	// Блокируется до сигнала остановки
	botController.Start(ctx)

	logger.Info("Shutting down")
	return nil
}
