package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"daily_revelation_bot/internal/app"
	"daily_revelation_bot/internal/domain/cursor"
	"daily_revelation_bot/internal/domain/subscriber"
	"daily_revelation_bot/internal/infra/config"
	idb "daily_revelation_bot/internal/infra/database"
	"daily_revelation_bot/internal/infra/filestore"
	"daily_revelation_bot/internal/infra/logger"
	"daily_revelation_bot/internal/infra/scheduler"
	"daily_revelation_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Daily Revelation Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.For("main")

	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageDriver,
		"send_time":   cfg.DailySendTime,
		"timezone":    cfg.Timezone.String(),
		"admin_id":    cfg.AdminTelegramID,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The catalog is the only hard requirement: nothing can be delivered without it.
	messages, stats, err := filestore.LoadCatalog(cfg.MessagesFile)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not load message catalog")
	}
	mainLogger.WithFields(logrus.Fields{
		"file":    cfg.MessagesFile,
		"loaded":  stats.Loaded,
		"skipped": stats.Skipped,
	}).Info("Message catalog loaded")

	subscribers, cursorStore, closeStorage := openStorage(ctx, cfg, mainLogger)
	defer closeStorage()

	deliveryCursor := cursor.New(cursorStore)
	position, err := deliveryCursor.Load(ctx, messages.Len())
	if err != nil {
		mainLogger.WithError(err).Warn("Could not read persisted cursor, starting from the first message")
	}
	mainLogger.WithField("index", position).Info("Delivery cursor loaded")

	pref := telebot.Settings{
		Token:   cfg.TelegramToken,
		Poller:  &telebot.LongPoller{Timeout: cfg.PollTimeout},
		OnError: telegram.ErrorHandler(logger.For("telebot")),
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	deliveryService := app.NewDeliveryService(
		messages,
		subscribers,
		deliveryCursor,
		telegram.NewTelebotAdapter(bot),
		cfg.SendRatePerSec,
		logger.For("delivery"),
	)
	registrationService := app.NewRegistrationService(subscribers, logger.For("registration"))
	adminService := app.NewAdminService(deliveryService, cfg.AdminTelegramID)

	commands := telegram.SubscriberCommands(registrationService, cfg.DailySendTime, cfg.Timezone.String())
	if cfg.AdminTelegramID != 0 {
		commands = append(commands, telegram.AdminCommands(adminService)...)
	}
	telegram.RegisterCommands(ctx, bot, commands, logger.For("commands"))
	telegram.RegisterUpdateHandlers(bot, logger.For("updates"))
	mainLogger.WithField("commands", len(commands)).Info("Command handlers registered")

	deliveryScheduler, err := scheduler.NewDeliveryScheduler(
		deliveryService,
		logger.For("scheduler"),
		cfg.DailySendTime,
		cfg.Timezone,
		cfg.DeliveryTimeout,
	)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create delivery scheduler")
	}
	if err := deliveryScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start delivery scheduler")
	}
	mainLogger.WithField("next_run", deliveryScheduler.Next().Format(time.RFC3339)).Info("Bot and scheduler are running")

	go bot.Start()

	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	deliveryScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}

// openStorage builds the registry and cursor store for the configured driver.
func openStorage(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) (subscriber.Repository, cursor.Store, func()) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("Could not connect to database")
		}
		if err := idb.EnsureSchema(ctx, db); err != nil {
			db.Close()
			log.WithError(err).Fatal("Could not prepare database schema")
		}
		log.Info("Database connection established successfully.")
		return idb.NewPostgresSubscriberRepository(db), idb.NewPostgresCursorStore(db), func() { db.Close() }
	default:
		subscribers, err := filestore.OpenSubscriberRepository(cfg.ChatIDsFile, logger.For("subscribers"))
		if err != nil {
			log.WithError(err).Fatal("Could not open subscriber file")
		}
		return subscribers, filestore.NewCursorStore(cfg.IndexFile), func() {}
	}
}
