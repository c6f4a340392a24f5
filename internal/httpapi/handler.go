package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clinicflow/flow-service/internal/directory"
	"clinicflow/flow-service/internal/hub"
	"clinicflow/flow-service/internal/models"
	"clinicflow/flow-service/internal/notify"
	"clinicflow/flow-service/internal/pathway"
	"clinicflow/flow-service/internal/store"

	"github.com/google/uuid"
)

type Handler struct {
	store     store.FlowStore
	catalog   pathway.Catalog
	directory directory.Directory
	hub       *hub.Hub
	notifier  notify.Notifier
}

type Options struct {
	Catalog   pathway.Catalog
	Directory directory.Directory
	Hub       *hub.Hub
	Notifier  notify.Notifier
}

func NewHandler(flowStore store.FlowStore, options Options) *Handler {
	return &Handler{
		store:     flowStore,
		catalog:   options.Catalog,
		directory: options.Directory,
		hub:       options.Hub,
		notifier:  options.Notifier,
	}
}

type createVisitRequest struct {
	TokenID      string `json:"token_id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	Phone        string `json:"phone"`
	AcuityLevel  int    `json:"acuity_level"`
	Category     string `json:"category"`
	StartJourney bool   `json:"start_journey"`
}

type createVisitResponse struct {
	Visit   models.Visit   `json:"visit"`
	Patient models.Patient `json:"patient,omitempty"`
}

type startJourneyRequest struct {
	TokenID     string `json:"token_id"`
	AcuityLevel int    `json:"acuity_level"`
	Category    string `json:"category"`
}

type estimateResponse struct {
	Category    string   `json:"category,omitempty"`
	AcuityLevel int      `json:"acuity_level,omitempty"`
	Pathway     []string `json:"pathway"`
	store.JourneyEstimate
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/visits", h.handleVisits)
	mux.HandleFunc("/api/journeys/start", h.handleStartJourney)
	mux.HandleFunc("/api/journeys/", h.handleJourney)
	mux.HandleFunc("/api/stations/", h.handleStation)
	mux.HandleFunc("/api/queue/estimate", h.handleEstimate)
	mux.HandleFunc("/api/admin/reset", h.handleReset)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleVisits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createVisitRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	req.TokenID = strings.TrimSpace(req.TokenID)
	req.Name = strings.TrimSpace(req.Name)
	req.Gender = strings.TrimSpace(req.Gender)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Category = strings.TrimSpace(req.Category)

	if !isValidAcuity(req.AcuityLevel) {
		writeError(w, http.StatusBadRequest, "invalid_request", "acuity_level must be between 1 and 5")
		return
	}
	if req.Phone != "" && !isValidPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "invalid_request", "phone must be 8-16 digits")
		return
	}
	if req.TokenID == "" {
		req.TokenID = newToken()
	}

	// Identity persistence is best-effort: a directory failure is logged
	// and never blocks the visit from entering the flow.
	var patient models.Patient
	patientRef := ""
	if h.directory != nil && req.Name != "" {
		created, err := h.directory.Create(r.Context(), models.Patient{
			Name:   req.Name,
			Age:    req.Age,
			Gender: req.Gender,
			Phone:  req.Phone,
		})
		if err != nil {
			log.Printf("intake token=%s directory create error: %v", req.TokenID, err)
		} else {
			patient = created
			patientRef = created.PatientID
		}
	}

	now := time.Now().UTC()
	visit, err := h.store.CreateVisit(r.Context(), store.CreateVisitInput{
		TokenID:     req.TokenID,
		PatientRef:  patientRef,
		AcuityLevel: req.AcuityLevel,
		Category:    req.Category,
		CreatedAt:   now,
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	if req.StartJourney {
		visit, err = h.store.StartJourney(r.Context(), store.StartJourneyInput{
			TokenID:     visit.TokenID,
			AcuityLevel: visit.AcuityLevel,
			Category:    visit.Category,
			StartedAt:   now,
		})
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		h.publishStation(r.Context(), visit.CurrentStation)
	}

	writeJSON(w, http.StatusOK, createVisitResponse{Visit: visit, Patient: patient})
}

func (h *Handler) handleStartJourney(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req startJourneyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	req.TokenID = strings.TrimSpace(req.TokenID)
	req.Category = strings.TrimSpace(req.Category)
	if req.TokenID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token_id is required")
		return
	}
	if req.AcuityLevel != 0 && !isValidAcuity(req.AcuityLevel) {
		writeError(w, http.StatusBadRequest, "invalid_request", "acuity_level must be between 1 and 5")
		return
	}

	visit, err := h.store.StartJourney(r.Context(), store.StartJourneyInput{
		TokenID:     req.TokenID,
		AcuityLevel: req.AcuityLevel,
		Category:    req.Category,
		StartedAt:   time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishStation(r.Context(), visit.CurrentStation)
	writeJSON(w, http.StatusOK, visit)
}

func (h *Handler) handleJourney(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/journeys/"), "/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleJourneyStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "advance":
		h.handleAdvance(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "repair":
		h.handleRepair(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleJourneyStatus(w http.ResponseWriter, r *http.Request, tokenID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	status, err := h.store.Status(r.Context(), tokenID, time.Now().UTC())
	if err != nil {
		httpStatus, code, msg := mapError(err)
		writeError(w, httpStatus, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request, tokenID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	previous, found, err := h.store.GetVisit(r.Context(), tokenID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if !found {
		status, code, msg := mapError(store.ErrVisitNotFound)
		writeError(w, status, code, msg)
		return
	}

	result, err := h.store.Advance(r.Context(), store.AdvanceInput{
		TokenID:    tokenID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishStation(r.Context(), previous.CurrentStation)
	if result.NextStation != "" {
		h.publishStation(r.Context(), result.NextStation)
		if h.notifier != nil {
			go h.notifier.StationChanged(context.WithoutCancel(r.Context()), tokenID, result.NextStation)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRepair(w http.ResponseWriter, r *http.Request, tokenID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	previous, _, err := h.store.GetVisit(r.Context(), tokenID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	visit, err := h.store.RepairPathway(r.Context(), tokenID, time.Now().UTC())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	if previous.CurrentStation != "" && previous.CurrentStation != visit.CurrentStation {
		h.publishStation(r.Context(), previous.CurrentStation)
	}
	h.publishStation(r.Context(), visit.CurrentStation)
	writeJSON(w, http.StatusOK, visit)
}

func (h *Handler) handleStation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	stationID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/stations/"), "/")
	if stationID == "" || strings.Contains(stationID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	view, err := h.store.StationView(r.Context(), stationID, time.Now().UTC())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	category := strings.TrimSpace(query.Get("category"))
	acuityRaw := strings.TrimSpace(query.Get("acuity"))
	stationsRaw := strings.TrimSpace(query.Get("stations"))

	var stations []string
	acuity := 0
	switch {
	case stationsRaw != "":
		for _, id := range strings.Split(stationsRaw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				stations = append(stations, id)
			}
		}
	case category != "" || acuityRaw != "":
		acuity = 3
		if acuityRaw != "" {
			parsed, err := strconv.Atoi(acuityRaw)
			if err != nil || !isValidAcuity(parsed) {
				writeError(w, http.StatusBadRequest, "invalid_request", "acuity must be between 1 and 5")
				return
			}
			acuity = parsed
		}
		stations = h.catalog.Resolve(acuity, category)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "category, acuity, or stations is required")
		return
	}

	estimate, err := h.store.EstimateJourney(r.Context(), stations)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, estimateResponse{
		Category:        category,
		AcuityLevel:     acuity,
		Pathway:         stations,
		JourneyEstimate: estimate,
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := h.store.Reset(r.Context()); err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// publishStation pushes the refreshed station board to realtime clients.
// Best-effort: display lag is tolerable, queue state is authoritative.
func (h *Handler) publishStation(ctx context.Context, stationID string) {
	if h.hub == nil || stationID == "" {
		return
	}
	view, err := h.store.StationView(ctx, stationID, time.Now().UTC())
	if err != nil {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return
	}
	h.hub.Broadcast(stationID, payload)
}

func newToken() string {
	return "T-" + strings.ToUpper(uuid.NewString()[:8])
}

func isValidAcuity(level int) bool {
	return level >= models.AcuityMin && level <= models.AcuityMax
}

func isValidPhone(value string) bool {
	if len(value) < 8 || len(value) > 16 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrVisitNotFound):
		return http.StatusNotFound, "visit_not_found", "visit not found"
	case errors.Is(err, store.ErrStationNotFound):
		return http.StatusNotFound, "station_not_found", "station not found"
	case errors.Is(err, store.ErrVisitExists):
		return http.StatusConflict, "visit_exists", "a visit with this token already exists"
	case errors.Is(err, store.ErrJourneyStarted):
		return http.StatusConflict, "journey_started", "journey already started"
	case errors.Is(err, store.ErrJourneyNotStarted):
		return http.StatusConflict, "journey_not_started", "journey has not been started"
	case errors.Is(err, store.ErrJourneyCompleted):
		return http.StatusConflict, "journey_completed", "journey already completed"
	case errors.Is(err, store.ErrInvalidPathwayPosition):
		return http.StatusConflict, "pathway_position_invalid", "current station is not on the pathway; repair the pathway first"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
