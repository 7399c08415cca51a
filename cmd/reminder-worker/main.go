package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/glossworks/detailing-platform/cmd/mainconfig"
	"github.com/glossworks/detailing-platform/internal/config"
	"github.com/glossworks/detailing-platform/internal/events"
	"github.com/glossworks/detailing-platform/internal/notify"
	"github.com/glossworks/detailing-platform/internal/observability/metrics"
	"github.com/glossworks/detailing-platform/internal/reminders"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Standalone dispatcher for deployments that want reminder and event
// delivery out of the API process. SKIP LOCKED claims keep it safe to run
// alongside the API's built-in loops.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("reminder worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var email notify.EmailSender
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			os.Exit(1)
		}
		email = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			email = sender
		} else {
			logger.Warn("no email provider configured, reminder emails are logged only")
			email = notify.NewStubEmailSender(logger)
		}
	}

	var sms notify.SMSSender
	if cfg.SMSAPIKey != "" {
		telnyx := notify.NewTelnyxSender(cfg.SMSAPIKey, cfg.SMSMessagingProfileID, logger)
		if cfg.SMSBaseURL != "" {
			telnyx = telnyx.WithAPIURL(strings.TrimRight(cfg.SMSBaseURL, "/") + "/v2/messages")
		}
		sms = telnyx
	} else {
		logger.Warn("no SMS provider configured, reminder texts are logged only")
		sms = notify.NewStubSMSSender(logger)
	}

	reminderStore := reminders.NewStore(pool)
	worker := reminders.NewWorker(reminderStore, email, sms,
		metrics.NewReminderMetrics(nil), logger, reminders.WorkerConfig{
			Interval:    cfg.ReminderPollInterval,
			BatchSize:   int32(cfg.ReminderBatchSize),
			MaxAttempts: cfg.ReminderMaxAttempts,
			BackoffBase: cfg.ReminderBaseDelay,
			SMSFrom:     cfg.SMSFromNumber,
		})
	go worker.Run(ctx)

	var handler events.DeliveryHandler = events.NewLogHandler(logger)
	if cfg.EventsQueueURL != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SQS", "error", err)
			os.Exit(1)
		}
		handler = events.NewSQSHandler(sqs.NewFromConfig(awsCfg), cfg.EventsQueueURL)
	}
	deliverer := events.NewDeliverer(events.NewOutboxStore(pool), handler, logger).
		WithInterval(cfg.OutboxPollInterval).
		WithBatchSize(int32(cfg.OutboxBatchSize))
	go deliverer.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reminder worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
