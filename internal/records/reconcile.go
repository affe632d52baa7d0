package records

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clinicops/clinic-crm/internal/observability/metrics"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

// Reconciler produces the single clinic-scoped view over both collections.
// Reads are two separate snapshots, not a transaction; the dual-write path is
// best-effort, so the two collections may be observed at slightly different
// instants. That is accepted.
type Reconciler struct {
	patients     PatientStore
	appointments AppointmentStore
	logger       *logging.Logger
	metrics      *metrics.RecordMetrics
}

// NewReconciler builds a reconciler over the two stores.
func NewReconciler(patients PatientStore, appointments AppointmentStore, logger *logging.Logger, m *metrics.RecordMetrics) *Reconciler {
	if patients == nil || appointments == nil {
		panic("records: reconciler requires both stores")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{
		patients:     patients,
		appointments: appointments,
		logger:       logger,
		metrics:      m,
	}
}

// List returns the merged, de-duplicated, ordered view for one tenant.
//
// Phone number is the merge key: when a patient document and an appointment
// document carry the same non-empty phone, the appointment-side entry wins
// because appointments are merged into the working map after patients.
// Records without a phone are never collapsed.
func (r *Reconciler) List(ctx context.Context, clinicID string) ([]UnifiedRecord, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return nil, ErrClinicIDRequired
	}

	start := time.Now()

	patients, err := r.patients.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("records: list patients: %w", err)
	}
	appointments, err := r.appointments.ListVisibleToClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("records: list appointments: %w", err)
	}

	byPhone := make(map[string]UnifiedRecord, len(patients)+len(appointments))
	var phoneless []UnifiedRecord

	merge := func(u UnifiedRecord) {
		if u.Phone == "" {
			phoneless = append(phoneless, u)
			return
		}
		byPhone[u.Phone] = u // later insertion wins
	}

	for _, p := range patients {
		merge(NormalizePatient(p, clinicID))
	}
	for _, a := range appointments {
		merge(NormalizeAppointment(a, clinicID))
	}

	out := make([]UnifiedRecord, 0, len(byPhone)+len(phoneless))
	for _, u := range byPhone {
		out = append(out, u)
	}
	out = append(out, phoneless...)

	sortByScheduleDesc(out)

	r.metrics.ObserveReconcile(clinicID, len(out), time.Since(start).Seconds())
	r.logger.Debug("records reconciled",
		"clinic_id", clinicID,
		"patients", len(patients),
		"appointments", len(appointments),
		"result", len(out),
	)
	return out, nil
}

// sortByScheduleDesc orders newest-first by combined date+time. Records whose
// date carries no parseable time-of-day fall back to midnight; fully
// unparseable timestamps sort to the tail. Ties break on id so a fixed
// snapshot always yields the same order.
func sortByScheduleDesc(recs []UnifiedRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		ti := scheduleTime(recs[i])
		tj := scheduleTime(recs[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return recs[i].ID < recs[j].ID
	})
}

var dateLayouts = []string{"2006-01-02", "2006/01/02"}

var timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// scheduleTime parses a record's date+time, defaulting the time-of-day to
// midnight. The zero time marks an unparseable date.
func scheduleTime(u UnifiedRecord) time.Time {
	date := strings.TrimSpace(u.Date)
	if date == "" {
		return time.Time{}
	}

	var day time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, date); err == nil {
			day = d
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}
	}

	clock := strings.TrimSpace(u.Time)
	for _, layout := range timeLayouts {
		if c, err := time.Parse(layout, clock); err == nil {
			return day.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute + time.Duration(c.Second())*time.Second)
		}
	}
	return day // midnight fallback
}
