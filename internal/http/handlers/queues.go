package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openclinic/frontdesk/internal/observability/metrics"
	"github.com/openclinic/frontdesk/internal/queueflow"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// QueueHandler serves the attendant and medic queue terminals.
type QueueHandler struct {
	flow    *queueflow.Service
	logger  *logging.Logger
	metrics *metrics.FrontdeskMetrics
}

type QueueHandlerConfig struct {
	Flow    *queueflow.Service
	Logger  *logging.Logger
	Metrics *metrics.FrontdeskMetrics
}

func NewQueueHandler(cfg QueueHandlerConfig) *QueueHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &QueueHandler{flow: cfg.Flow, logger: cfg.Logger, metrics: cfg.Metrics}
}

func parseRole(r *http.Request) queueflow.Role {
	role := queueflow.Role(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("role"))))
	switch role {
	case queueflow.RoleMedic, queueflow.RoleAttendant, queueflow.RolePatient, queueflow.RoleKiosk, queueflow.RoleDisplay:
		return role
	default:
		return queueflow.RoleDisplay
	}
}

// Snapshot returns today's queues and tickets for the caller's role.
// Route: GET /api/queues?role=ATTENDANT
func (h *QueueHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.flow.Snapshot(r.Context(), parseRole(r))
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type createQueueRequest struct {
	MedicID          string `json:"medicId"`
	ConsultationRoom int    `json:"consultationRoom"`
}

// CreateQueue opens today's queue. An empty medicId means the general queue.
// Route: POST /api/queues
func (h *QueueHandler) CreateQueue(w http.ResponseWriter, r *http.Request) {
	var req createQueueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	queue, err := h.flow.CreateQueue(r.Context(), req.MedicID, req.ConsultationRoom)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, queue)
}

type callNextRequest struct {
	Role        string `json:"role"`
	AttendantID string `json:"attendantId"`
	MedicID     string `json:"medicId"`
}

// CallNext advances a queue on behalf of the calling terminal.
// Route: POST /api/queues/{queueID}/call-next
func (h *QueueHandler) CallNext(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")

	var req callNextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role := queueflow.Role(strings.ToUpper(strings.TrimSpace(req.Role)))

	ticket, err := h.flow.CallNext(r.Context(), role, queueID, req.AttendantID, req.MedicID)
	if err != nil {
		h.metrics.ObserveCallNext(string(role), "error")
		writeFlowError(w, h.logger, err)
		return
	}
	h.metrics.ObserveCallNext(string(role), "ok")
	writeJSON(w, http.StatusOK, ticket)
}

// Complete marks a medic-called ticket as served.
// Route: POST /api/tickets/{ticketID}/complete
func (h *QueueHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.flow.Complete(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// MarkUnredeemed records a no-show on an attendant-called ticket.
// Route: POST /api/tickets/{ticketID}/unredeemed
func (h *QueueHandler) MarkUnredeemed(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.flow.MarkUnredeemed(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

type redirectRequest struct {
	MedicID   string `json:"medicId"`
	PatientID string `json:"patientId"`
}

// Redirect rebinds a generic-queue ticket to a medic.
// Route: POST /api/tickets/{ticketID}/redirect
func (h *QueueHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	var req redirectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.flow.Redirect(r.Context(), chi.URLParam(r, "ticketID"), req.MedicID, req.PatientID)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}
