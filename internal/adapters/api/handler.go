package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxImportBytes caps the size of an uploaded zone file.
const maxImportBytes = 10 << 20

// APIHandler handles HTTP requests for zone and record management.
type APIHandler struct {
	svc ports.DNSService
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(svc ports.DNSService) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers the API routes with the provided ServeMux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /metrics", h.Metrics)

	mux.HandleFunc("POST /zones", h.CreateZone)
	mux.HandleFunc("GET /zones", h.ListZones)
	mux.HandleFunc("GET /zones/lookup", h.LookupZone)
	mux.HandleFunc("POST /zones/import", h.ImportZone)
	mux.HandleFunc("PUT /zones/{id}", h.UpdateZone)
	mux.HandleFunc("GET /zones/{id}/records", h.ListRecordsForZone)
	mux.HandleFunc("POST /zones/{id}/records", h.CreateRecord)
	mux.HandleFunc("PUT /records/{id}", h.UpdateRecord)
	mux.HandleFunc("DELETE /ipam/addresses/{id}", h.DecoupleAddress)
}

// Metrics handles Prometheus metrics scraping requests.
func (h *APIHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)
	checks := h.svc.HealthCheck(r.Context())

	for name, checkErr := range checks {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	resp := map[string]interface{}{
		"status":  status,
		"details": details,
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (h *APIHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var zone domain.Zone
	if err := json.NewDecoder(r.Body).Decode(&zone); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	zone.ID = ""

	if err := h.svc.CreateZone(r.Context(), &zone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, zone)
}

func (h *APIHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var zone domain.Zone
	if err := json.NewDecoder(r.Body).Decode(&zone); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	zone.ID = r.PathValue("id")

	if err := h.svc.UpdateZone(r.Context(), &zone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

func (h *APIHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.svc.ListZones(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

// LookupZone returns the zone a name belongs to, or with parent=true the zone
// strictly above it.
func (h *APIHandler) LookupZone(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}
	parent, _ := strconv.ParseBool(r.URL.Query().Get("parent"))

	find := h.svc.FindZoneForName
	if parent {
		find = h.svc.FindParentZone
	}
	zone, err := find(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// ImportZone loads the master file in the request body into the zone given by
// the name parameter.
func (h *APIHandler) ImportZone(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	zone, imported, err := h.svc.ImportZone(r.Context(), body, name)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "zone file too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"zone":     zone,
		"imported": imported,
	})
}

func (h *APIHandler) ListRecordsForZone(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListRecordsForZone(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var record domain.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	record.ID = ""
	record.ZoneID = r.PathValue("id")

	if err := h.svc.SaveRecord(r.Context(), &record); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *APIHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var record domain.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if record.ZoneID == "" {
		http.Error(w, "zone_id is required", http.StatusBadRequest)
		return
	}
	record.ID = r.PathValue("id")

	if err := h.svc.SaveRecord(r.Context(), &record); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// DecoupleAddress is called by the address management system when an address
// object is deleted.
func (h *APIHandler) DecoupleAddress(w http.ResponseWriter, r *http.Request) {
	deleted, decoupled, err := h.svc.DecoupleAddress(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"deleted":   deleted,
		"decoupled": decoupled,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var formatErr *domain.FormatError
	var constraintErr *domain.ConstraintError

	if fields := domain.ValidationFields(err); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  err.Error(),
			"fields": fields,
		})
		return
	}
	switch {
	case errors.As(err, &formatErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &constraintErr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
