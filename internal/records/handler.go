package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicops/clinic-crm/internal/tenancy"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

// ViewExporter renders the reconciled view as a downloadable spreadsheet.
type ViewExporter interface {
	WriteXLSX(w io.Writer, recs []UnifiedRecord) error
}

// Handler exposes the patient-records API consumed by the dashboard.
type Handler struct {
	reconciler  *Reconciler
	coordinator *Coordinator
	exporter    ViewExporter
	logger      *logging.Logger
}

// NewHandler creates the records handler. exporter may be nil to disable the
// export endpoint.
func NewHandler(reconciler *Reconciler, coordinator *Coordinator, exporter ViewExporter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		reconciler:  reconciler,
		coordinator: coordinator,
		exporter:    exporter,
		logger:      logger,
	}
}

// List handles GET /api/patients?clinicId=X
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.reconciler.List(r.Context(), clinicIDFromRequest(r))
	if err != nil {
		if errors.Is(err, ErrClinicIDRequired) {
			respondMessage(w, http.StatusBadRequest, "Clinic ID required")
			return
		}
		h.logger.Error("failed to list records", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// Create handles POST /api/patients
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClinicID == "" {
		if clinicID, ok := tenancy.ClinicIDFromContext(r.Context()); ok {
			req.ClinicID = clinicID
		}
	}

	rec, err := h.coordinator.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrClinicIDRequired) {
			respondMessage(w, http.StatusBadRequest, "Clinic ID required")
			return
		}
		h.logger.Error("failed to add patient", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Failed to add patient")
		return
	}

	h.logger.Info("patient created", "id", rec.ID, "clinic_id", rec.ClinicID)
	respondJSON(w, http.StatusCreated, rec)
}

// Update handles PUT /api/patients/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.coordinator.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			respondMessage(w, http.StatusNotFound, "Record not found")
			return
		}
		h.logger.Error("failed to update patient", "error", err, "id", id)
		respondMessage(w, http.StatusInternalServerError, "Failed to update patient")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/patients/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.coordinator.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			respondMessage(w, http.StatusNotFound, "Record not found")
			return
		}
		h.logger.Error("failed to delete patient", "error", err, "id", id)
		respondMessage(w, http.StatusInternalServerError, "Failed to delete patient")
		return
	}

	respondMessage(w, http.StatusOK, "Deleted")
}

// Export handles GET /api/patients/export?clinicId=X
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		respondMessage(w, http.StatusNotFound, "Export disabled")
		return
	}

	clinicID := clinicIDFromRequest(r)
	recs, err := h.reconciler.List(r.Context(), clinicID)
	if err != nil {
		if errors.Is(err, ErrClinicIDRequired) {
			respondMessage(w, http.StatusBadRequest, "Clinic ID required")
			return
		}
		h.logger.Error("failed to export records", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	filename := fmt.Sprintf("patients-%s-%s.xlsx", clinicID, time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := h.exporter.WriteXLSX(w, recs); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("failed to write export", "error", err, "clinic_id", clinicID)
	}
}

func clinicIDFromRequest(r *http.Request) string {
	if clinicID, ok := tenancy.ClinicIDFromContext(r.Context()); ok {
		return clinicID
	}
	return r.URL.Query().Get("clinicId")
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
