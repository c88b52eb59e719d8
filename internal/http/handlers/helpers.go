// Package handlers exposes the front-of-house HTTP surface: kiosk, queue
// operations, booking, the registry, appointments, and the waiting-room
// display. Handlers translate between the terminal frontends and the
// workflow services; they hold no authoritative state.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/internal/booking"
	"github.com/openclinic/frontdesk/internal/queueflow"
	"github.com/openclinic/frontdesk/pkg/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeFlowError maps workflow errors onto HTTP statuses. Validation errors
// are 400s, domain refusals 409/422, and backend errors keep the status the
// backend chose. Anything else is a 502: the backend is the single source of
// truth, so an unexpected failure here means we could not reach it.
func writeFlowError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, queueflow.ErrMissingCaller),
		errors.Is(err, queueflow.ErrMissingSelection),
		errors.Is(err, booking.ErrMissingSelection):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, queueflow.ErrQueueRoleMismatch):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, queueflow.ErrQueueNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, queueflow.ErrNoAppointment):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "This patient does not have a scheduled appointment with this medic today."})
	case errors.Is(err, queueflow.ErrGenericQueueExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "A general queue already exists today."})
	case errors.Is(err, queueflow.ErrMedicQueueExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "A queue for this medic already exists today."})
	case errors.Is(err, queueflow.ErrNoGenericQueue):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "No general queue available for today. Please ask an attendant to create one."})
	case errors.Is(err, booking.ErrBookingInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		if apiErr, ok := backend.AsAPIError(err); ok {
			writeJSON(w, apiErr.StatusCode, errorResponse{Error: apiErr.Message})
			return
		}
		if logger == nil {
			logger = logging.Default()
		}
		logger.Error("backend request failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "clinic backend unavailable"})
	}
}
