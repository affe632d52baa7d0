package clinic

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicops/clinic-crm/pkg/logging"
)

// Handler exposes login, signup and the public clinic-config lookup.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates the clinic handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("clinic: handler requires a store")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	acct, err := h.store.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respondMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login failed", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.logger.Info("clinic logged in", "clinic_id", acct.ClinicID)
	respondJSON(w, http.StatusOK, acct.Public())
}

// Signup handles POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var acct Account
	if err := json.NewDecoder(r.Body).Decode(&acct); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.Create(r.Context(), acct); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateAccount):
			respondMessage(w, http.StatusConflict, "Clinic already exists")
		case acct.ClinicID == "" || acct.Username == "" || acct.Password == "":
			respondMessage(w, http.StatusBadRequest, "clinicId, username and password are required")
		default:
			h.logger.Error("signup failed", "error", err)
			respondMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	h.logger.Info("clinic signed up", "clinic_id", acct.ClinicID)
	respondJSON(w, http.StatusCreated, acct.Public())
}

// Config handles GET /api/clinic-config/{clinicID}. Public read used by the
// chatbot frontend; credentials are never included.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")

	acct, err := h.store.GetByID(r.Context(), clinicID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			respondMessage(w, http.StatusNotFound, "Clinic not found")
			return
		}
		h.logger.Error("clinic config lookup failed", "error", err, "clinic_id", clinicID)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"clinicId":       acct.ClinicID,
		"name":           acct.Name,
		"whatsappNumber": acct.WhatsAppNumber,
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
