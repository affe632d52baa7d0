package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/clinic-crm/internal/records"
)

type captureNotifier struct {
	mu   sync.Mutex
	recs []records.AppointmentRecord
}

func (n *captureNotifier) AppointmentIngested(_ context.Context, rec records.AppointmentRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recs = append(n.recs, rec)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.recs)
}

func TestWorkerWritesAppointment(t *testing.T) {
	queue := NewMemoryQueue(8)
	store := records.NewInMemoryAppointmentStore()
	notifier := &captureNotifier{}
	worker := NewWorker(queue, store, notifier, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	publisher := NewPublisher(queue, nil)
	_, err := publisher.Enqueue(ctx, AppointmentEvent{
		ClinicID:        "clinic1",
		ClinicName:      "Shady Grove Dental",
		PatientName:     "Asha",
		Phone:           "555",
		Service:         "Cleaning",
		AppointmentDate: "2024-01-02",
		AppointmentTime: "10:30",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		recs, err := store.ListVisibleToClinic(context.Background(), "clinic1")
		return err == nil && len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	recs, err := store.ListVisibleToClinic(context.Background(), "clinic1")
	require.NoError(t, err)
	rec := recs[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Asha", rec.PatientName)
	assert.Equal(t, "2024-01-02", rec.AppointmentDate)
	assert.Equal(t, records.StatusPending, rec.Status, "status defaults to Pending")
	assert.Equal(t, records.SourceWhatsApp, rec.Source)
	assert.NotEmpty(t, rec.CreatedAt)

	require.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	worker.Wait()
}

func TestWorkerDropsPoisonMessages(t *testing.T) {
	queue := NewMemoryQueue(8)
	store := records.NewInMemoryAppointmentStore()
	worker := NewWorker(queue, store, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, queue.Send(ctx, "{not json"))
	worker.Start(ctx)

	// The malformed message is deleted, nothing is stored, and the worker
	// keeps going: a valid event sent afterwards still lands.
	publisher := NewPublisher(queue, nil)
	_, err := publisher.Enqueue(ctx, AppointmentEvent{ClinicID: "clinic1", PatientName: "Asha"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		recs, err := store.ListVisibleToClinic(context.Background(), "clinic1")
		return err == nil && len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	worker.Wait()
}

type flakyAppointmentStore struct {
	records.AppointmentStore
	mu       sync.Mutex
	failures int
}

func (s *flakyAppointmentStore) Put(ctx context.Context, rec records.AppointmentRecord) error {
	s.mu.Lock()
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()
	if fail {
		return errors.New("table unavailable")
	}
	return s.AppointmentStore.Put(ctx, rec)
}

func TestWorkerLeavesMessageOnStoreFailure(t *testing.T) {
	queue := NewMemoryQueue(8)
	inner := records.NewInMemoryAppointmentStore()
	store := &flakyAppointmentStore{AppointmentStore: inner, failures: 1}
	worker := NewWorker(queue, store, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewPublisher(queue, nil)
	_, err := publisher.Enqueue(ctx, AppointmentEvent{ClinicID: "clinic1", PatientName: "Asha"})
	require.NoError(t, err)

	worker.Start(ctx)

	// First attempt fails and the message stays queued; the memory queue has
	// no redelivery, so re-send to simulate it.
	time.Sleep(50 * time.Millisecond)
	recs, err := inner.ListVisibleToClinic(context.Background(), "clinic1")
	require.NoError(t, err)
	require.Empty(t, recs)

	_, err = publisher.Enqueue(ctx, AppointmentEvent{ClinicID: "clinic1", PatientName: "Asha"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		recs, err := inner.ListVisibleToClinic(context.Background(), "clinic1")
		return err == nil && len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	worker.Wait()
}
