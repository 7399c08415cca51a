package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/glossworks/detailing-platform/cmd/mainconfig"
	"github.com/glossworks/detailing-platform/internal/analytics"
	"github.com/glossworks/detailing-platform/internal/api/router"
	"github.com/glossworks/detailing-platform/internal/appointments"
	"github.com/glossworks/detailing-platform/internal/catalog"
	"github.com/glossworks/detailing-platform/internal/clients"
	appconfig "github.com/glossworks/detailing-platform/internal/config"
	"github.com/glossworks/detailing-platform/internal/estimate"
	"github.com/glossworks/detailing-platform/internal/events"
	"github.com/glossworks/detailing-platform/internal/invoices"
	"github.com/glossworks/detailing-platform/internal/notify"
	"github.com/glossworks/detailing-platform/internal/observability/metrics"
	"github.com/glossworks/detailing-platform/internal/reminders"
	"github.com/glossworks/detailing-platform/internal/settings"
	"github.com/glossworks/detailing-platform/internal/slots"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting detailing-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Separate database/sql handle for the admin overview queries.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open admin db handle", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, tenant settings fall back to defaults", "error", err)
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	reminderMetrics := metrics.NewReminderMetrics(registry)

	slotRepo := slots.NewRepository(pool)
	clientRepo := clients.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	apptRepo := appointments.NewRepository(pool)
	invoiceRepo := invoices.NewRepository(pool)
	reminderStore := reminders.NewStore(pool)
	outboxStore := events.NewOutboxStore(pool)
	settingsStore := settings.NewStore(redisClient)
	analyticsRepo := analytics.NewRepository(pool)

	scheduler := reminders.NewScheduler(reminderStore, settingsStore, logger).
		WithDefaultLeads(cfg.ReminderEmailLead, cfg.ReminderSMSLead)
	apptService := appointments.NewService(pool, apptRepo, slotRepo, clientRepo,
		catalogRepo, scheduler, outboxStore, bookingMetrics, logger)
	invoiceService := invoices.NewService(pool, invoiceRepo, outboxStore, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		SlotsHandler:        slots.NewHandler(slotRepo, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		ClientsHandler:      clients.NewHandler(clientRepo, logger),
		CatalogHandler:      catalog.NewHandler(catalogRepo, logger),
		EstimateHandler:     estimate.NewHandler(catalogRepo, logger),
		InvoicesHandler:     invoices.NewHandler(invoiceService, logger),
		RemindersHandler:    reminders.NewHandler(reminderStore, logger),
		SettingsHandler:     settings.NewHandler(settingsStore, logger),
		AnalyticsHandler:    analytics.NewHandler(analyticsRepo, logger).WithGatherer(registry),
		AdminAnalytics:      analytics.NewAdminHandler(sqlDB, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminJWTSecret:      cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// The API process also runs the reminder dispatcher and outbox deliverer.
	// Both claim their batches with SKIP LOCKED, so extra replicas contend
	// without double-sending; delivery downstream is still at-least-once.
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	startBackgroundWorkers(workerCtx, cfg, pool, reminderStore, outboxStore, reminderMetrics, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func startBackgroundWorkers(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool,
	reminderStore *reminders.Store, outboxStore *events.OutboxStore,
	m *metrics.ReminderMetrics, logger *logging.Logger) {

	email := buildEmailSender(ctx, cfg, logger)
	sms := buildSMSSender(cfg, logger)

	worker := reminders.NewWorker(reminderStore, email, sms, m, logger, reminders.WorkerConfig{
		Interval:    cfg.ReminderPollInterval,
		MaxAttempts: cfg.ReminderMaxAttempts,
		BatchSize:   int32(cfg.ReminderBatchSize),
		BackoffBase: cfg.ReminderBaseDelay,
		SMSFrom:     cfg.SMSFromNumber,
	})
	go worker.Run(ctx)

	deliverer := events.NewDeliverer(outboxStore, buildDeliveryHandler(ctx, cfg, logger), logger).
		WithInterval(cfg.OutboxPollInterval).
		WithBatchSize(int32(cfg.OutboxBatchSize))
	go deliverer.Start(ctx)
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			return notify.NewStubEmailSender(logger)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("no email provider configured, reminder emails are logged only")
		return notify.NewStubEmailSender(logger)
	}
}

func buildSMSSender(cfg *appconfig.Config, logger *logging.Logger) notify.SMSSender {
	if cfg.SMSAPIKey == "" {
		logger.Warn("no SMS provider configured, reminder texts are logged only")
		return notify.NewStubSMSSender(logger)
	}
	sender := notify.NewTelnyxSender(cfg.SMSAPIKey, cfg.SMSMessagingProfileID, logger)
	if cfg.SMSBaseURL != "" {
		sender = sender.WithAPIURL(strings.TrimRight(cfg.SMSBaseURL, "/") + "/v2/messages")
	}
	return sender
}

func buildDeliveryHandler(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) events.DeliveryHandler {
	if cfg.EventsQueueURL == "" {
		logger.Warn("EVENTS_QUEUE_URL not set, outbox events are logged only")
		return events.NewLogHandler(logger)
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config for SQS", "error", err)
		return events.NewLogHandler(logger)
	}
	return events.NewSQSHandler(sqs.NewFromConfig(awsCfg), cfg.EventsQueueURL)
}
