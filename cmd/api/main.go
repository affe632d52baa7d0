package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicops/clinic-crm/cmd/mainconfig"
	"github.com/clinicops/clinic-crm/internal/api/router"
	"github.com/clinicops/clinic-crm/internal/clinic"
	appconfig "github.com/clinicops/clinic-crm/internal/config"
	"github.com/clinicops/clinic-crm/internal/export"
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
	logger.Info("starting clinic-crm API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"memory_store", cfg.UseMemoryStore,
		"memory_queue", cfg.UseMemoryQueue,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	recordMetrics := metrics.NewRecordMetrics(registry)

	var awsCfg aws.Config
	needsAWS := !cfg.UseMemoryStore || !cfg.UseMemoryQueue || cfg.NotifyFromEmail != ""
	if needsAWS {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = loaded
	}

	redisClient := mainconfig.NewRedisClient(cfg)
	defer redisClient.Close()

	clinicStore := clinic.NewStore(redisClient, logger)
	if err := clinicStore.EnsureSeed(ctx, clinic.Account{
		ClinicID: cfg.ClinicID,
		Name:     cfg.ClinicName,
		Username: cfg.ClinicUsername,
		Password: cfg.ClinicPassword,
	}); err != nil {
		logger.Error("failed to seed clinic account", "error", err)
	}

	var (
		patients     records.PatientStore
		appointments records.AppointmentStore
	)
	if cfg.UseMemoryStore {
		patients = records.NewInMemoryPatientStore()
		appointments = records.NewInMemoryAppointmentStore()
	} else {
		dynamoClient := dynamodb.NewFromConfig(awsCfg)
		patients = records.NewDynamoPatientStore(dynamoClient, cfg.PatientsTable, logger)
		appointments = records.NewDynamoAppointmentStore(dynamoClient, cfg.AppointmentsTable, logger)
	}

	var emailSender notify.EmailSender
	if cfg.NotifyFromEmail != "" {
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
		logger.Info("SES booking notifications enabled", "from", cfg.NotifyFromEmail)
	} else {
		emailSender = notify.NewStubEmailSender(logger)
		logger.Warn("booking notifications disabled (NOTIFY_FROM_EMAIL not set)")
	}
	notifier := notify.NewService(emailSender, clinicStore, logger)

	var ingestQueue *ingest.MemoryQueue
	var publisher *ingest.Publisher
	var inlineWorker *ingest.Worker
	if cfg.UseMemoryQueue {
		ingestQueue = ingest.NewMemoryQueue(128)
		publisher = ingest.NewPublisher(ingestQueue, logger)
		// No separate worker binary in memory mode; drain the queue in-process.
		inlineWorker = ingest.NewWorker(ingestQueue, appointments, notifier, logger, recordMetrics)
		inlineWorker.Start(ctx)
		logger.Info("inline ingest worker started")
	} else {
		sqsQueue := ingest.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.IngestQueueURL)
		publisher = ingest.NewPublisher(sqsQueue, logger)
	}

	reconciler := records.NewReconciler(patients, appointments, logger, recordMetrics)
	coordinator := records.NewCoordinator(patients, appointments, clinicStore, logger, recordMetrics)

	r := router.New(&router.Config{
		Logger:             logger,
		RecordsHandler:     records.NewHandler(reconciler, coordinator, export.NewExporter(), logger),
		ClinicHandler:      clinic.NewHandler(clinicStore, logger),
		IngestHandler:      ingest.NewHandler(publisher, clinicStore, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	cancel()
	if inlineWorker != nil {
		inlineWorker.Wait()
	}

	logger.Info("server stopped")
}
