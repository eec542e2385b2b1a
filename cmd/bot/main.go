package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthday_reminder_bot/internal/app"
	"birthday_reminder_bot/internal/domain/birthday"
	"birthday_reminder_bot/internal/domain/event"
	domainGateway "birthday_reminder_bot/internal/domain/gateway"
	"birthday_reminder_bot/internal/infra/config"
	idb "birthday_reminder_bot/internal/infra/database"
	"birthday_reminder_bot/internal/infra/dedup"
	infraGateway "birthday_reminder_bot/internal/infra/gateway"
	"birthday_reminder_bot/internal/infra/logger"
	"birthday_reminder_bot/internal/infra/metrics"
	"birthday_reminder_bot/internal/infra/scheduler"
	"birthday_reminder_bot/internal/infra/webhook"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	log := logger.Get().WithField("app", "birthday-bot")
	log.WithFields(logrus.Fields{
		"environment":      cfg.Environment,
		"store_driver":     cfg.StoreDriver,
		"gateway_provider": cfg.GatewayProvider,
	}).Info("Birthday Reminder Bot starting")

	ctx := context.Background()

	// Record Store
	var store birthday.Store
	switch cfg.StoreDriver {
	case "postgres":
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		store = idb.NewPostgresStore(db)
		log.Info("Postgres store initialized")
	default:
		store = idb.NewFileStore(cfg.StoreFilePath)
		log.WithField("path", cfg.StoreFilePath).Info("File store initialized")
	}

	records, err := app.NewRecordService(ctx, store, log.WithField("component", "records"))
	if err != nil {
		log.WithError(err).Fatal("Could not load birthday records")
	}
	_, _, recordCount := records.Counts()
	log.WithField("records", recordCount).Info("Birthday records loaded")

	// Messaging Gateway
	var gw domainGateway.Client
	switch cfg.GatewayProvider {
	case "telegram":
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			log.WithError(err).Fatal("Could not create Telegram bot")
		}
		gw = infraGateway.NewTelegramGateway(bot)
		log.Info("Telegram gateway initialized")
	default:
		gw = infraGateway.NewHTTPGateway(
			cfg.GatewayBaseURL,
			cfg.GatewayAuthURL,
			cfg.GatewayAPIKey,
			cfg.GatewayToken,
			cfg.SendTimeout,
			log.WithField("component", "gateway"),
		)
		log.WithField("base_url", cfg.GatewayBaseURL).Info("HTTP gateway initialized")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	dispatcher := app.NewDispatcher(records, m, cfg.PromoText, log.WithField("component", "dispatcher"))
	ingest := app.NewIngestService(
		event.NewNormalizer(cfg.BotID),
		dedup.NewCache(cfg.MaxCacheSize),
		dispatcher,
		gw,
		m,
		cfg.SendTimeout,
		log.WithField("component", "ingest"),
	)
	reminders := app.NewReminderService(records, gw, m, cfg.ReminderLead, cfg.SendTimeout, log.WithField("component", "reminders"))

	// Reminder Scheduler
	sched := scheduler.NewReminderScheduler(reminders, log.WithField("component", "scheduler"), cfg.ReminderCron)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("Could not start reminder scheduler")
	}

	// HTTP surface
	handler := webhook.NewHandler(ingest, reminders, gw, records, webhook.StatusInfo{
		StoreDriver:       cfg.StoreDriver,
		GatewayProvider:   cfg.GatewayProvider,
		GatewayConfigured: cfg.GatewayBaseURL != "" || cfg.TelegramToken != "",
		ReminderLeadDays:  cfg.ReminderLead,
	}, log.WithField("component", "webhook"))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful HTTP shutdown failed")
	}
	log.Info("Application shut down gracefully")
}
