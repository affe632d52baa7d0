package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicops/clinic-crm/internal/clinic"
	"github.com/clinicops/clinic-crm/internal/records"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

// AccountLookup resolves a tenant to its notification recipient.
type AccountLookup interface {
	GetByID(ctx context.Context, clinicID string) (*clinic.Account, error)
}

// Service emails the clinic when the chatbot books an appointment.
type Service struct {
	sender   EmailSender
	accounts AccountLookup
	logger   *logging.Logger
}

// NewService creates the notification service.
func NewService(sender EmailSender, accounts AccountLookup, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	return &Service{sender: sender, accounts: accounts, logger: logger}
}

// AppointmentIngested sends the new-booking email. Unscoped appointments and
// accounts without an email address are skipped silently; the booking itself
// is already stored.
func (s *Service) AppointmentIngested(ctx context.Context, rec records.AppointmentRecord) error {
	clinicID := rec.ClinicID
	if clinicID == "" {
		clinicID = rec.ClinicName
	}
	if clinicID == "" || s.accounts == nil {
		return nil
	}

	acct, err := s.accounts.GetByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, clinic.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("notify: lookup account: %w", err)
	}
	if acct.Email == "" {
		return nil
	}

	name := rec.PatientName
	if name == "" {
		name = rec.Name
	}

	msg := EmailMessage{
		To:      acct.Email,
		ToName:  acct.Name,
		Subject: fmt.Sprintf("New WhatsApp booking: %s", name),
		Body: fmt.Sprintf(
			"A new appointment was booked through the chatbot.\n\n"+
				"Patient: %s\nPhone: %s\nService: %s\nDate: %s\nTime: %s\n",
			name, rec.Phone, rec.Service, rec.AppointmentDate, rec.AppointmentTime,
		),
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send booking email: %w", err)
	}
	s.logger.Debug("booking notification sent", "clinic_id", clinicID, "to", acct.Email)
	return nil
}
