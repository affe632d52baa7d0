package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic-crm/internal/observability/metrics"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

// ClinicNameResolver supplies the clinic display name stamped onto the
// appointment-side copy of a dashboard write. Optional; lookup failures fall
// back to the clinic id.
type ClinicNameResolver interface {
	DisplayName(ctx context.Context, clinicID string) (string, error)
}

// Coordinator performs the dual writes that keep the patients and
// appointments collections mutually readable. The patient-side write is
// authoritative; the appointment-side write is best-effort and its failure is
// logged but never surfaced. No transaction spans the two collections —
// availability over consistency, deliberately.
type Coordinator struct {
	patients     PatientStore
	appointments AppointmentStore
	names        ClinicNameResolver
	logger       *logging.Logger
	metrics      *metrics.RecordMetrics
	now          func() time.Time
}

// NewCoordinator builds a coordinator over the two stores. names may be nil.
func NewCoordinator(patients PatientStore, appointments AppointmentStore, names ClinicNameResolver, logger *logging.Logger, m *metrics.RecordMetrics) *Coordinator {
	if patients == nil || appointments == nil {
		panic("records: coordinator requires both stores")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{
		patients:     patients,
		appointments: appointments,
		names:        names,
		logger:       logger,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create writes the patient document (authoritative) and then attempts the
// field-translated appointment copy. The copy failing does not fail the call.
func (c *Coordinator) Create(ctx context.Context, req CreatePatientRequest) (UnifiedRecord, error) {
	if err := req.Validate(); err != nil {
		return UnifiedRecord{}, err
	}

	rec := PatientRecord{
		ID:       uuid.NewString(),
		ClinicID: strings.TrimSpace(req.ClinicID),
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Service:  req.Service,
		Price:    req.Price,
		Date:     req.Date,
		Time:     req.Time,
		Status:   firstNonEmpty(req.Status, StatusPending),
	}

	if err := c.patients.Put(ctx, rec); err != nil {
		return UnifiedRecord{}, fmt.Errorf("records: create patient: %w", err)
	}

	copyRec := c.appointmentCopy(ctx, rec)
	if err := c.appointments.Put(ctx, copyRec); err != nil {
		c.metrics.ObserveSecondaryFailure("create")
		c.logger.Warn("appointment copy write failed",
			"patient_id", rec.ID,
			"clinic_id", rec.ClinicID,
			"error", err,
		)
	}

	return NormalizePatient(rec, rec.ClinicID), nil
}

// Update applies changes to the document owning the id — patient collection
// first, appointment collection second — then best-effort propagates the same
// changes to phone-paired documents in the other collection.
func (c *Coordinator) Update(ctx context.Context, id string, req UpdateRecordRequest) (UnifiedRecord, error) {
	p, err := c.patients.Get(ctx, id)
	switch {
	case err == nil:
		return c.updatePatient(ctx, *p, req)
	case !errors.Is(err, ErrRecordNotFound):
		return UnifiedRecord{}, fmt.Errorf("records: load patient %s: %w", id, err)
	}

	a, err := c.appointments.Get(ctx, id)
	switch {
	case err == nil:
		return c.updateAppointment(ctx, *a, req)
	case !errors.Is(err, ErrRecordNotFound):
		return UnifiedRecord{}, fmt.Errorf("records: load appointment %s: %w", id, err)
	}

	return UnifiedRecord{}, ErrRecordNotFound
}

// Delete removes the document owning the id, then best-effort cascades to
// phone-paired documents in the other collection.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	p, err := c.patients.Get(ctx, id)
	switch {
	case err == nil:
		if err := c.patients.Delete(ctx, id); err != nil {
			return fmt.Errorf("records: delete patient %s: %w", id, err)
		}
		c.cascadeDeleteAppointments(ctx, p.ClinicID, p.Phone)
		return nil
	case !errors.Is(err, ErrRecordNotFound):
		return fmt.Errorf("records: load patient %s: %w", id, err)
	}

	a, err := c.appointments.Get(ctx, id)
	switch {
	case err == nil:
		if err := c.appointments.Delete(ctx, id); err != nil {
			return fmt.Errorf("records: delete appointment %s: %w", id, err)
		}
		c.cascadeDeletePatients(ctx, firstNonEmpty(a.ClinicID, a.ClinicName), a.Phone)
		return nil
	case !errors.Is(err, ErrRecordNotFound):
		return fmt.Errorf("records: load appointment %s: %w", id, err)
	}

	return ErrRecordNotFound
}

func (c *Coordinator) updatePatient(ctx context.Context, p PatientRecord, req UpdateRecordRequest) (UnifiedRecord, error) {
	pairPhone := p.Phone
	applyToPatient(&p, req)

	if err := c.patients.Put(ctx, p); err != nil {
		return UnifiedRecord{}, fmt.Errorf("records: update patient %s: %w", p.ID, err)
	}

	if pairPhone != "" {
		paired, err := c.appointments.FindByPhone(ctx, p.ClinicID, pairPhone)
		if err != nil {
			c.metrics.ObserveSecondaryFailure("update")
			c.logger.Warn("paired appointment lookup failed", "patient_id", p.ID, "error", err)
		}
		for _, a := range paired {
			applyToAppointment(&a, req, c.now())
			if err := c.appointments.Put(ctx, a); err != nil {
				c.metrics.ObserveSecondaryFailure("update")
				c.logger.Warn("paired appointment update failed", "appointment_id", a.ID, "error", err)
			}
		}
	}

	return NormalizePatient(p, p.ClinicID), nil
}

func (c *Coordinator) updateAppointment(ctx context.Context, a AppointmentRecord, req UpdateRecordRequest) (UnifiedRecord, error) {
	clinicID := firstNonEmpty(a.ClinicID, a.ClinicName)
	pairPhone := a.Phone
	applyToAppointment(&a, req, c.now())

	if err := c.appointments.Put(ctx, a); err != nil {
		return UnifiedRecord{}, fmt.Errorf("records: update appointment %s: %w", a.ID, err)
	}

	if pairPhone != "" {
		paired, err := c.patients.FindByPhone(ctx, clinicID, pairPhone)
		if err != nil {
			c.metrics.ObserveSecondaryFailure("update")
			c.logger.Warn("paired patient lookup failed", "appointment_id", a.ID, "error", err)
		}
		for _, p := range paired {
			applyToPatient(&p, req)
			if err := c.patients.Put(ctx, p); err != nil {
				c.metrics.ObserveSecondaryFailure("update")
				c.logger.Warn("paired patient update failed", "patient_id", p.ID, "error", err)
			}
		}
	}

	return NormalizeAppointment(a, clinicID), nil
}

func (c *Coordinator) cascadeDeleteAppointments(ctx context.Context, clinicID, phone string) {
	if phone == "" {
		return
	}
	paired, err := c.appointments.FindByPhone(ctx, clinicID, phone)
	if err != nil {
		c.metrics.ObserveSecondaryFailure("delete")
		c.logger.Warn("cascade appointment lookup failed", "clinic_id", clinicID, "error", err)
		return
	}
	for _, a := range paired {
		if err := c.appointments.Delete(ctx, a.ID); err != nil {
			c.metrics.ObserveSecondaryFailure("delete")
			c.logger.Warn("cascade appointment delete failed", "appointment_id", a.ID, "error", err)
		}
	}
}

func (c *Coordinator) cascadeDeletePatients(ctx context.Context, clinicID, phone string) {
	if phone == "" {
		return
	}
	paired, err := c.patients.FindByPhone(ctx, clinicID, phone)
	if err != nil {
		c.metrics.ObserveSecondaryFailure("delete")
		c.logger.Warn("cascade patient lookup failed", "clinic_id", clinicID, "error", err)
		return
	}
	for _, p := range paired {
		if err := c.patients.Delete(ctx, p.ID); err != nil {
			c.metrics.ObserveSecondaryFailure("delete")
			c.logger.Warn("cascade patient delete failed", "patient_id", p.ID, "error", err)
		}
	}
}

// appointmentCopy translates a patient document into the shared appointments
// shape, populating both naming conventions so either reader finds its
// fields.
func (c *Coordinator) appointmentCopy(ctx context.Context, p PatientRecord) AppointmentRecord {
	now := c.now().Format(time.RFC3339)
	return AppointmentRecord{
		ID:              uuid.NewString(),
		ClinicID:        p.ClinicID,
		ClinicName:      c.displayName(ctx, p.ClinicID),
		PatientName:     p.Name,
		Name:            p.Name,
		Phone:           p.Phone,
		Email:           p.Email,
		Service:         p.Service,
		Price:           p.Price,
		AppointmentDate: p.Date,
		AppointmentTime: p.Time,
		Date:            p.Date,
		Time:            p.Time,
		Status:          p.Status,
		Source:          SourceDashboard,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (c *Coordinator) displayName(ctx context.Context, clinicID string) string {
	if c.names == nil {
		return clinicID
	}
	name, err := c.names.DisplayName(ctx, clinicID)
	if err != nil || name == "" {
		return clinicID
	}
	return name
}

func applyToPatient(p *PatientRecord, req UpdateRecordRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Service != nil {
		p.Service = *req.Service
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Date != nil {
		p.Date = *req.Date
	}
	if req.Time != nil {
		p.Time = *req.Time
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
}

func applyToAppointment(a *AppointmentRecord, req UpdateRecordRequest, now time.Time) {
	if req.Name != nil {
		a.Name = *req.Name
		a.PatientName = *req.Name
	}
	if req.Phone != nil {
		a.Phone = *req.Phone
	}
	if req.Email != nil {
		a.Email = *req.Email
	}
	if req.Service != nil {
		a.Service = *req.Service
	}
	if req.Price != nil {
		a.Price = *req.Price
	}
	if req.Date != nil {
		a.Date = *req.Date
		a.AppointmentDate = *req.Date
	}
	if req.Time != nil {
		a.Time = *req.Time
		a.AppointmentTime = *req.Time
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	a.UpdatedAt = now.Format(time.RFC3339)
}
