package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/data"
	"github.com/giygas/medicine-inventory/interfaces"
	"github.com/giygas/medicine-inventory/logging"
	"github.com/giygas/medicine-inventory/metrics"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// SearchMedicines serves GET /api/medicines/search
func (h *HTTPHandlerImpl) SearchMedicines(w http.ResponseWriter, r *http.Request) {
	params, err := catalog.ParseSearchParams(r.URL.Query())
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validator.ValidateSearchParams(params); err != nil {
		logging.Warn("Rejected search parameters", "error", err, "query", r.URL.RawQuery)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, h.dataStore.Search(params))
}

// ListMedicines serves GET /api/medicines?skip=&limit=
func (h *HTTPHandlerImpl) ListMedicines(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil || skip < 0 {
		RespondWithError(w, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}

	limit, err := queryInt(r, "limit", data.DefaultListLimit)
	if err != nil || limit < 1 || limit > data.MaxListLimit {
		RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(data.MaxListLimit))
		return
	}

	RespondWithJSON(w, http.StatusOK, h.dataStore.List(skip, limit))
}

// GetMedicine serves GET /api/medicines/{id}
func (h *HTTPHandlerImpl) GetMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.medicineID(w, r)
	if !ok {
		return
	}

	medicine, found := h.dataStore.Get(id)
	if !found {
		RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}

	RespondWithJSON(w, http.StatusOK, medicine)
}

// CreateMedicine serves POST /api/medicines
func (h *HTTPHandlerImpl) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.decodeUpdate(w, r, true)
	if !ok {
		return
	}

	medicine, err := h.dataStore.Create(fields)
	if err != nil {
		logging.Error("Failed to create medicine", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to create medicine")
		return
	}

	metrics.RecordEdit(metrics.EditCreate, h.dataStore.Count())
	logging.Info("Medicine created", "id", medicine.ID, "brand_name", medicine.BrandName)
	RespondWithJSON(w, http.StatusCreated, medicine)
}

// UpdateMedicine serves PUT /api/medicines/{id}
func (h *HTTPHandlerImpl) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.medicineID(w, r)
	if !ok {
		return
	}

	fields, ok := h.decodeUpdate(w, r, false)
	if !ok {
		return
	}

	medicine, err := h.dataStore.Update(id, fields)
	if errors.Is(err, data.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}
	if err != nil {
		logging.Error("Failed to update medicine", "id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to update medicine")
		return
	}

	metrics.RecordEdit(metrics.EditUpdate, h.dataStore.Count())
	logging.Info("Medicine updated", "id", id)
	RespondWithJSON(w, http.StatusOK, medicine)
}

// DeleteMedicine serves DELETE /api/medicines/{id}
func (h *HTTPHandlerImpl) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.medicineID(w, r)
	if !ok {
		return
	}

	err := h.dataStore.Delete(id)
	if errors.Is(err, data.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}
	if err != nil {
		logging.Error("Failed to delete medicine", "id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete medicine")
		return
	}

	metrics.RecordEdit(metrics.EditDelete, h.dataStore.Count())
	logging.Info("Medicine deleted", "id", id)
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Medicine deleted successfully"})
}

// Statistics serves GET /api/statistics
func (h *HTTPHandlerImpl) Statistics(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.dataStore.Statistics())
}

// Filters serves GET /api/filters
func (h *HTTPHandlerImpl) Filters(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.dataStore.FilterOptions())
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, details, httpStatus := h.healthChecker.HealthCheck()

	var uptime time.Duration
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	response := HealthResponse{
		Status: status,
		Data:   details,
		System: map[string]any{
			"uptime":         formatUptimeHuman(uptime),
			"uptime_seconds": int(uptime.Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	RespondWithJSON(w, httpStatus, response)
}

// medicineID validates the {id} path parameter and answers 400 when it is invalid
func (h *HTTPHandlerImpl) medicineID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := h.validator.ValidateID(raw)
	if err != nil {
		logging.Warn("Unusual user input", "id", raw)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// decodeUpdate reads and validates a create or update payload
func (h *HTTPHandlerImpl) decodeUpdate(w http.ResponseWriter, r *http.Request, requireBrandName bool) (catalog.MedicineUpdate, bool) {
	var fields catalog.MedicineUpdate
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return catalog.MedicineUpdate{}, false
	}

	if err := h.validator.ValidateMedicineUpdate(fields, requireBrandName); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return catalog.MedicineUpdate{}, false
	}

	return fields, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
