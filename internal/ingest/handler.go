package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clinicops/clinic-crm/internal/clinic"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

// AccountResolver maps a WhatsApp channel number to the owning tenant.
type AccountResolver interface {
	GetByChannel(ctx context.Context, number string) (*clinic.Account, error)
}

// Handler accepts chatbot booking webhooks.
type Handler struct {
	publisher *Publisher
	accounts  AccountResolver
	logger    *logging.Logger
}

// NewHandler creates the webhook handler. accounts may be nil, in which case
// events without a tenant key are stored unscoped.
func NewHandler(publisher *Publisher, accounts AccountResolver, logger *logging.Logger) *Handler {
	if publisher == nil {
		panic("ingest: handler requires a publisher")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{publisher: publisher, accounts: accounts, logger: logger}
}

// Accept handles POST /webhooks/whatsapp/appointments. The event is queued
// and written asynchronously; the chatbot only needs the 202.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var event AppointmentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(event.PatientName) == "" && strings.TrimSpace(event.Phone) == "" {
		respondMessage(w, http.StatusBadRequest, "patient_name or phone is required")
		return
	}

	h.resolveTenant(r.Context(), &event)

	id, err := h.publisher.Enqueue(r.Context(), event)
	if err != nil {
		h.logger.Error("failed to enqueue appointment event", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// resolveTenant fills in the tenant key from the channel number when the
// event carries neither synonym. Events that still resolve to nothing are
// accepted and stored unscoped, matching the legacy rows already in the
// collection.
func (h *Handler) resolveTenant(ctx context.Context, event *AppointmentEvent) {
	if event.ClinicID != "" || event.ClinicName != "" {
		return
	}
	if h.accounts == nil || event.Channel == "" {
		return
	}

	acct, err := h.accounts.GetByChannel(ctx, event.Channel)
	if err != nil {
		if !errors.Is(err, clinic.ErrAccountNotFound) {
			h.logger.Warn("channel lookup failed", "error", err, "channel", event.Channel)
		}
		return
	}
	event.ClinicID = acct.ClinicID
	event.ClinicName = acct.Name
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
