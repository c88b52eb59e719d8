package handlers

import (
	"net/http"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/internal/observability/metrics"
	"github.com/openclinic/frontdesk/internal/queueflow"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// KioskHandler serves the self-service ticket kiosk.
type KioskHandler struct {
	flow    *queueflow.Service
	logger  *logging.Logger
	metrics *metrics.FrontdeskMetrics
}

type KioskHandlerConfig struct {
	Flow    *queueflow.Service
	Logger  *logging.Logger
	Metrics *metrics.FrontdeskMetrics
}

func NewKioskHandler(cfg KioskHandlerConfig) *KioskHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &KioskHandler{flow: cfg.Flow, logger: cfg.Logger, metrics: cfg.Metrics}
}

type issueTicketRequest struct {
	Priority backend.TicketPriority `json:"priority"`
}

type issueTicketResponse struct {
	TicketNum     int    `json:"ticketNum"`
	Priority      string `json:"priority"`
	PriorityLabel string `json:"priorityLabel"`
}

// IssueTicket takes a number on today's general queue. The response carries
// what the kiosk prints: the number and the priority band.
// Route: POST /api/kiosk/tickets
func (h *KioskHandler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req issueTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch req.Priority {
	case backend.PriorityNormal, backend.PriorityPreferential, backend.PriorityExamResults:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown ticket priority"})
		return
	}

	ticket, err := h.flow.IssueTicket(r.Context(), req.Priority)
	if err != nil {
		h.metrics.ObserveTicketIssued(string(req.Priority), "error")
		writeFlowError(w, h.logger, err)
		return
	}
	h.metrics.ObserveTicketIssued(string(req.Priority), "ok")
	writeJSON(w, http.StatusCreated, issueTicketResponse{
		TicketNum:     ticket.TicketNum,
		Priority:      string(ticket.TicketPriority),
		PriorityLabel: ticket.TicketPriority.Label(),
	})
}
