package ingest

import (
	"context"
	"fmt"

	"github.com/clinicops/clinic-crm/pkg/logging"
)

// Publisher enqueues appointment events for asynchronous processing.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("ingest: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// Enqueue publishes an appointment event and returns its assigned id.
func (p *Publisher) Enqueue(ctx context.Context, event AppointmentEvent) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, body, err := encodePayload(queuePayload{Event: event})
	if err != nil {
		return "", err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return "", fmt.Errorf("ingest: failed to enqueue event: %w", err)
	}

	p.logger.Debug("appointment event enqueued", "event_id", payload.ID, "clinic_id", event.ClinicID)
	return payload.ID, nil
}
