package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic-crm/internal/observability/metrics"
	"github.com/clinicops/clinic-crm/internal/records"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

// Notifier alerts the clinic about an ingested booking. Failures are logged,
// never retried.
type Notifier interface {
	AppointmentIngested(ctx context.Context, rec records.AppointmentRecord) error
}

// WorkerOption configures optional worker behavior.
type WorkerOption func(*workerConfig)

type workerConfig struct {
	workers          int
	receiveBatchSize int
	receiveWaitSecs  int
}

// WithWorkerCount sets how many receive loops run concurrently.
func WithWorkerCount(count int) WorkerOption {
	return func(c *workerConfig) {
		if count > 0 {
			c.workers = count
		}
	}
}

// Worker drains the ingest queue into the appointments collection.
type Worker struct {
	queue        queueClient
	appointments records.AppointmentStore
	notifier     Notifier
	logger       *logging.Logger
	metrics      *metrics.RecordMetrics
	cfg          workerConfig
	now          func() time.Time
	wg           sync.WaitGroup
}

// NewWorker builds an ingest worker. notifier and m may be nil.
func NewWorker(queue queueClient, appointments records.AppointmentStore, notifier Notifier, logger *logging.Logger, m *metrics.RecordMetrics, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("ingest: worker requires a queue")
	}
	if appointments == nil {
		panic("ingest: worker requires an appointment store")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          1,
		receiveBatchSize: 10,
		receiveWaitSecs:  10,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		queue:        queue,
		appointments: appointments,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the worker goroutines. They exit when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("ingest worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("ingest worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive appointment events", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode appointment event", "error", err, "msg_id", msg.ID)
		w.metrics.ObserveIngest("invalid")
		// Drop the poison message so it does not cycle forever.
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	rec := w.appointmentRecord(payload.Event)
	if err := w.appointments.Put(ctx, rec); err != nil {
		w.logger.Error("failed to store appointment", "error", err, "event_id", payload.ID)
		w.metrics.ObserveIngest("error")
		// Leave the message on the queue for redelivery.
		return
	}

	w.metrics.ObserveIngest("ok")
	w.logger.Info("appointment ingested",
		"event_id", payload.ID,
		"appointment_id", rec.ID,
		"clinic_id", rec.ClinicID,
	)

	if w.notifier != nil {
		if err := w.notifier.AppointmentIngested(ctx, rec); err != nil {
			w.logger.Warn("appointment notification failed", "error", err, "appointment_id", rec.ID)
		}
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

// appointmentRecord translates an event into the chatbot-convention document
// shape the collection has always held.
func (w *Worker) appointmentRecord(event AppointmentEvent) records.AppointmentRecord {
	now := w.now().Format(time.RFC3339)
	status := event.Status
	if status == "" {
		status = records.StatusPending
	}
	return records.AppointmentRecord{
		ID:              uuid.NewString(),
		ClinicID:        event.ClinicID,
		ClinicName:      event.ClinicName,
		PatientName:     event.PatientName,
		Phone:           event.Phone,
		Email:           event.Email,
		Service:         event.Service,
		Price:           event.Price,
		AppointmentDate: event.AppointmentDate,
		AppointmentTime: event.AppointmentTime,
		Status:          status,
		Source:          records.SourceWhatsApp,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err)
	}
}
