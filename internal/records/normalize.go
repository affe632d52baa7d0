package records

// Normalizers map either stored document shape onto UnifiedRecord. They are
// total functions: absent fields become defaults, never errors. When both
// naming conventions are present on one document the dashboard convention
// wins (name over patient_name, date over appointment_date, clinicId over
// clinic_name).

// NormalizePatient converts a patients-collection document. queryClinicID is
// the tenant the caller asked for and backfills legacy rows without one.
func NormalizePatient(p PatientRecord, queryClinicID string) UnifiedRecord {
	return UnifiedRecord{
		ID:       p.ID,
		ClinicID: firstNonEmpty(p.ClinicID, queryClinicID),
		Name:     p.Name,
		Phone:    p.Phone,
		Email:    p.Email,
		Service:  p.Service,
		Price:    float64(p.Price),
		Date:     p.Date,
		Time:     p.Time,
		Status:   firstNonEmpty(p.Status, StatusPending),
		Source:   SourceDashboard,
	}
}

// NormalizeAppointment converts an appointments-collection document.
func NormalizeAppointment(a AppointmentRecord, queryClinicID string) UnifiedRecord {
	return UnifiedRecord{
		ID:       a.ID,
		ClinicID: firstNonEmpty(a.ClinicID, a.ClinicName, queryClinicID),
		Name:     firstNonEmpty(a.Name, a.PatientName),
		Phone:    a.Phone,
		Email:    a.Email,
		Service:  a.Service,
		Price:    float64(a.Price),
		Date:     firstNonEmpty(a.Date, a.AppointmentDate),
		Time:     firstNonEmpty(a.Time, a.AppointmentTime),
		Status:   firstNonEmpty(a.Status, StatusPending),
		Source:   firstNonEmpty(a.Source, SourceWhatsApp),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
