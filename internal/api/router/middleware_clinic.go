package router

import (
	"net/http"
	"strings"

	"github.com/clinicops/clinic-crm/internal/tenancy"
)

const clinicHeader = "X-Clinic-Id"

// withClinicID resolves the tenant from the clinicId query parameter, falling
// back to the X-Clinic-Id header, and stores it on the context. Resolution is
// optional here; handlers that require a tenant reject requests without one.
func withClinicID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clinicID := strings.TrimSpace(r.URL.Query().Get("clinicId"))
		if clinicID == "" {
			clinicID = strings.TrimSpace(r.Header.Get(clinicHeader))
		}
		if clinicID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := tenancy.WithClinicID(r.Context(), clinicID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
