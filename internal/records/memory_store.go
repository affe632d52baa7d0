package records

import (
	"context"
	"sync"
)

// InMemoryPatientStore is a PatientStore backed by a map. Used in tests and
// when the API runs with USE_MEMORY_STORE=true.
type InMemoryPatientStore struct {
	mu   sync.RWMutex
	docs map[string]PatientRecord
}

// NewInMemoryPatientStore creates an empty in-memory patient store.
func NewInMemoryPatientStore() *InMemoryPatientStore {
	return &InMemoryPatientStore{docs: make(map[string]PatientRecord)}
}

func (s *InMemoryPatientStore) ListByClinic(_ context.Context, clinicID string) ([]PatientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PatientRecord
	for _, rec := range s.docs {
		if rec.ClinicID == clinicID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemoryPatientStore) Get(_ context.Context, id string) (*PatientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (s *InMemoryPatientStore) Put(_ context.Context, rec PatientRecord) error {
	s.mu.Lock()
	s.docs[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

func (s *InMemoryPatientStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrRecordNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *InMemoryPatientStore) FindByPhone(_ context.Context, clinicID, phone string) ([]PatientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PatientRecord
	for _, rec := range s.docs {
		if rec.ClinicID == clinicID && rec.Phone == phone {
			out = append(out, rec)
		}
	}
	return out, nil
}

// InMemoryAppointmentStore is an AppointmentStore backed by a map.
type InMemoryAppointmentStore struct {
	mu   sync.RWMutex
	docs map[string]AppointmentRecord
}

// NewInMemoryAppointmentStore creates an empty in-memory appointment store.
func NewInMemoryAppointmentStore() *InMemoryAppointmentStore {
	return &InMemoryAppointmentStore{docs: make(map[string]AppointmentRecord)}
}

func (s *InMemoryAppointmentStore) ListVisibleToClinic(_ context.Context, clinicID string) ([]AppointmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []AppointmentRecord
	for _, rec := range s.docs {
		if visibleToClinic(rec, clinicID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemoryAppointmentStore) Get(_ context.Context, id string) (*AppointmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (s *InMemoryAppointmentStore) Put(_ context.Context, rec AppointmentRecord) error {
	s.mu.Lock()
	s.docs[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

func (s *InMemoryAppointmentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrRecordNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *InMemoryAppointmentStore) FindByPhone(_ context.Context, clinicID, phone string) ([]AppointmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []AppointmentRecord
	for _, rec := range s.docs {
		if visibleToClinic(rec, clinicID) && rec.Phone == phone {
			out = append(out, rec)
		}
	}
	return out, nil
}

var (
	_ PatientStore     = (*InMemoryPatientStore)(nil)
	_ AppointmentStore = (*InMemoryAppointmentStore)(nil)
)
