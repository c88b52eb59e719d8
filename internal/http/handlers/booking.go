package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/internal/booking"
	"github.com/openclinic/frontdesk/internal/observability/metrics"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// BookingHandler hosts the slot drill-down workflow. The drill-down is
// stateful per terminal session: selecting a medic resets month, day, and
// slot; the session owns that cascade so every terminal sees consistent
// choices regardless of request interleaving.
type BookingHandler struct {
	backend   booking.Backend
	directory booking.Directory
	logger    *logging.Logger
	metrics   *metrics.FrontdeskMetrics
	ttl       time.Duration

	mu       sync.Mutex
	sessions map[string]*bookingSession
}

type bookingSession struct {
	flow     *booking.Flow
	lastSeen time.Time
}

type BookingHandlerConfig struct {
	Backend   booking.Backend
	Directory booking.Directory
	Logger    *logging.Logger
	Metrics   *metrics.FrontdeskMetrics
	// SessionTTL bounds how long an idle drill-down is kept. Zero means one
	// hour.
	SessionTTL time.Duration
}

func NewBookingHandler(cfg BookingHandlerConfig) *BookingHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	return &BookingHandler{
		backend:   cfg.Backend,
		directory: cfg.Directory,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		ttl:       cfg.SessionTTL,
		sessions:  make(map[string]*bookingSession),
	}
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateSession opens a fresh drill-down for a terminal.
// Route: POST /api/booking/sessions
func (h *BookingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	h.mu.Lock()
	h.pruneLocked()
	h.sessions[id] = &bookingSession{
		flow:     booking.NewFlow(h.backend, h.directory, booking.WithLogger(h.logger)),
		lastSeen: time.Now(),
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id})
}

func (h *BookingHandler) session(w http.ResponseWriter, r *http.Request) *booking.Flow {
	id := chi.URLParam(r, "sessionID")

	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown booking session"})
		return nil
	}
	s.lastSeen = time.Now()
	return s.flow
}

func (h *BookingHandler) pruneLocked() {
	cutoff := time.Now().Add(-h.ttl)
	for id, s := range h.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(h.sessions, id)
		}
	}
}

// SearchMedics filters the directory by name, registration, or specialty.
// Route: GET /api/booking/medics?q=
func (h *BookingHandler) SearchMedics(w http.ResponseWriter, r *http.Request) {
	flow := booking.NewFlow(h.backend, h.directory, booking.WithLogger(h.logger))
	medics, err := flow.SearchMedics(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, medics)
}

// SearchPatients filters the directory by name, CPF, or membership id.
// Route: GET /api/booking/patients?q=
func (h *BookingHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	flow := booking.NewFlow(h.backend, h.directory, booking.WithLogger(h.logger))
	patients, err := flow.SearchPatients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

type drillDownState struct {
	Selection booking.Selection                  `json:"selection"`
	Months    []string                           `json:"months"`
	Days      []backend.GroupedAppointments      `json:"days"`
	Slots     []backend.AvailableAppointmentTime `json:"slots"`
}

func state(flow *booking.Flow) drillDownState {
	return drillDownState{
		Selection: flow.Selection(),
		Months:    flow.AvailableMonths(),
		Days:      flow.Days(),
		Slots:     flow.Slots(),
	}
}

type selectRequest struct {
	MedicID string `json:"medicId,omitempty"`
	Month   string `json:"month,omitempty"`
	Day     string `json:"day,omitempty"`
	SlotID  string `json:"slotId,omitempty"`
}

// SelectMedic loads a medic's availability and resets the drill-down.
// Route: POST /api/booking/sessions/{sessionID}/medic
func (h *BookingHandler) SelectMedic(w http.ResponseWriter, r *http.Request) {
	flow := h.session(w, r)
	if flow == nil {
		return
	}
	var req selectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := flow.SelectMedic(r.Context(), req.MedicID); err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state(flow))
}

// SelectMonth narrows the drill-down to one month, clearing day and slot.
// Route: POST /api/booking/sessions/{sessionID}/month
func (h *BookingHandler) SelectMonth(w http.ResponseWriter, r *http.Request) {
	flow := h.session(w, r)
	if flow == nil {
		return
	}
	var req selectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	flow.SelectMonth(req.Month)
	writeJSON(w, http.StatusOK, state(flow))
}

// SelectDay narrows to one day, clearing the slot.
// Route: POST /api/booking/sessions/{sessionID}/day
func (h *BookingHandler) SelectDay(w http.ResponseWriter, r *http.Request) {
	flow := h.session(w, r)
	if flow == nil {
		return
	}
	var req selectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	flow.SelectDay(req.Day)
	writeJSON(w, http.StatusOK, state(flow))
}

// SelectSlot picks the slot to book.
// Route: POST /api/booking/sessions/{sessionID}/slot
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	flow := h.session(w, r)
	if flow == nil {
		return
	}
	var req selectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	flow.SelectSlot(req.SlotID)
	writeJSON(w, http.StatusOK, state(flow))
}

type scheduleRequest struct {
	PatientID string `json:"patientId"`
}

type scheduleResponse struct {
	Message string                        `json:"message"`
	Booked  *backend.ScheduledAppointment `json:"booked,omitempty"`
	State   drillDownState                `json:"state"`
}

// Schedule commits the booking for the session's selected slot.
// Route: POST /api/booking/sessions/{sessionID}/schedule
func (h *BookingHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	flow := h.session(w, r)
	if flow == nil {
		return
	}
	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := flow.Schedule(r.Context(), req.PatientID)
	if err != nil {
		h.metrics.ObserveBooking("error")
		writeFlowError(w, h.logger, err)
		return
	}
	h.metrics.ObserveBooking("ok")
	writeJSON(w, http.StatusOK, scheduleResponse{
		Message: result.Message,
		Booked:  result.Booked,
		State:   state(flow),
	})
}

// Reset clears the session's drill-down entirely.
// Route: POST /api/booking/sessions/{sessionID}/reset
func (h *BookingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	flow := h.session(w, r)
	if flow == nil {
		return
	}
	flow.Reset()
	writeJSON(w, http.StatusOK, state(flow))
}
