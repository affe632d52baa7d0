package records

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExporter struct{}

func (stubExporter) WriteXLSX(w io.Writer, recs []UnifiedRecord) error {
	_, err := w.Write([]byte("workbook"))
	return err
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	patients := NewInMemoryPatientStore()
	appointments := NewInMemoryAppointmentStore()
	h := NewHandler(
		NewReconciler(patients, appointments, nil, nil),
		NewCoordinator(patients, appointments, nil, nil, nil),
		stubExporter{},
		nil,
	)

	r := chi.NewRouter()
	r.Route("/api/patients", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/export", h.Export)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandlerListRequiresClinicID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/patients")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "Clinic ID required", body["message"])
}

func TestHandlerCRUDRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	// Create: string price and explicit status, the way the dashboard posts.
	resp, err := http.Post(srv.URL+"/api/patients", "application/json", strings.NewReader(`{
		"clinicId": "clinic1", "name": "Asha", "phone": "555", "price": "200", "status": "Complete"
	}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[UnifiedRecord](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, float64(200), created.Price)
	assert.Equal(t, "Complete", created.Status)
	assert.Equal(t, SourceDashboard, created.Source)

	// List: one reconciled entry despite the dual write, keyed by phone.
	resp, err = http.Get(srv.URL + "/api/patients?clinicId=clinic1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[[]UnifiedRecord](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, "Asha", listed[0].Name)

	// Update.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/patients/"+created.ID,
		bytes.NewReader([]byte(`{"status": "Cancelled"}`)))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[UnifiedRecord](t, resp)
	assert.Equal(t, "Cancelled", updated.Status)

	// Delete.
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/patients/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Deleted", decodeBody[map[string]string](t, resp)["message"])

	// Gone, copy included.
	resp, err = http.Get(srv.URL + "/api/patients?clinicId=clinic1")
	require.NoError(t, err)
	assert.Empty(t, decodeBody[[]UnifiedRecord](t, resp))
}

func TestHandlerCreateRejectsBadBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/patients", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", decodeBody[map[string]string](t, resp)["message"])
}

func TestHandlerUpdateUnknownID(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/patients/nope",
		strings.NewReader(`{"name": "x"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Record not found", decodeBody[map[string]string](t, resp)["message"])
}

func TestHandlerDeleteUnknownID(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/patients/nope", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerExportSetsDownloadHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/patients/export?clinicId=clinic1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "patients-clinic1-")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
}

func TestHandlerExportRequiresClinicID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/patients/export")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
