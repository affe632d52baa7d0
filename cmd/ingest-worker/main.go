// The ingest worker drains the SQS appointment queue into the appointments
// table. It only runs in SQS mode; with USE_MEMORY_QUEUE=true the API process
// drains its own in-memory queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinicops/clinic-crm/cmd/mainconfig"
	"github.com/clinicops/clinic-crm/internal/clinic"
	appconfig "github.com/clinicops/clinic-crm/internal/config"
	"github.com/clinicops/clinic-crm/internal/ingest"
	"github.com/clinicops/clinic-crm/internal/notify"
	"github.com/clinicops/clinic-crm/internal/observability/metrics"
	"github.com/clinicops/clinic-crm/internal/records"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-crm ingest worker", "env", cfg.Env)

	if cfg.UseMemoryQueue {
		logger.Error("ingest worker cannot run when USE_MEMORY_QUEUE=true; the API drains the queue inline")
		os.Exit(1)
	}
	if cfg.IngestQueueURL == "" {
		logger.Error("INGEST_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := ingest.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.IngestQueueURL)
	appointments := records.NewDynamoAppointmentStore(dynamodb.NewFromConfig(awsCfg), cfg.AppointmentsTable, logger)

	redisClient := mainconfig.NewRedisClient(cfg)
	defer redisClient.Close()
	clinicStore := clinic.NewStore(redisClient, logger)

	var emailSender notify.EmailSender
	if cfg.NotifyFromEmail != "" {
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
	} else {
		emailSender = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewService(emailSender, clinicStore, logger)

	recordMetrics := metrics.NewRecordMetrics(prometheus.NewRegistry())

	worker := ingest.NewWorker(queue, appointments, notifier, logger, recordMetrics,
		ingest.WithWorkerCount(2),
	)
	worker.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down ingest worker...")
	cancel()

	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("ingest worker stopped")
	case <-time.After(30 * time.Second):
		logger.Error("ingest worker shutdown timed out")
	}
}
