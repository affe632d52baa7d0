package records

import "context"

// PatientStore persists dashboard-authored patient documents.
type PatientStore interface {
	// ListByClinic returns documents whose clinicId equals the given tenant.
	ListByClinic(ctx context.Context, clinicID string) ([]PatientRecord, error)
	// Get returns the document with the given id or ErrRecordNotFound.
	Get(ctx context.Context, id string) (*PatientRecord, error)
	// Put inserts or fully replaces a document.
	Put(ctx context.Context, rec PatientRecord) error
	// Delete removes the document with the given id or returns ErrRecordNotFound.
	Delete(ctx context.Context, id string) error
	// FindByPhone returns tenant-visible documents with the given phone number.
	FindByPhone(ctx context.Context, clinicID, phone string) ([]PatientRecord, error)
}

// AppointmentStore persists shared-appointments documents.
type AppointmentStore interface {
	// ListVisibleToClinic returns documents whose tenant key (under either
	// synonym field) equals the given tenant, plus legacy rows carrying no
	// tenant key at all. The legacy leniency is deliberate: unscoped rows
	// predate tenant keys and stay visible to every clinic.
	ListVisibleToClinic(ctx context.Context, clinicID string) ([]AppointmentRecord, error)
	Get(ctx context.Context, id string) (*AppointmentRecord, error)
	Put(ctx context.Context, rec AppointmentRecord) error
	Delete(ctx context.Context, id string) error
	FindByPhone(ctx context.Context, clinicID, phone string) ([]AppointmentRecord, error)
}

// visibleToClinic reports whether an appointment document may be returned for
// the given tenant. Shared between the in-memory store and tests; the Dynamo
// store expresses the same rule as a filter expression.
func visibleToClinic(a AppointmentRecord, clinicID string) bool {
	if a.ClinicID == clinicID || a.ClinicName == clinicID {
		return true
	}
	return a.ClinicID == "" && a.ClinicName == ""
}
