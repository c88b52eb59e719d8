package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/pkg/logging"
)

type appointmentsBackend interface {
	SearchAppointments(ctx context.Context, criteria backend.AppointmentSearch, page, size int) (*backend.AppointmentPage, error)
	CancelAppointment(ctx context.Context, id string) error
	CreateSchedule(ctx context.Context, req backend.ScheduleRequest) (*backend.ScheduleResponse, error)
}

// AppointmentsHandler serves the attendant-facing appointment list and the
// schedule generation form.
type AppointmentsHandler struct {
	backend appointmentsBackend
	logger  *logging.Logger
}

type AppointmentsHandlerConfig struct {
	Backend appointmentsBackend
	Logger  *logging.Logger
}

func NewAppointmentsHandler(cfg AppointmentsHandlerConfig) *AppointmentsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AppointmentsHandler{backend: cfg.Backend, logger: cfg.Logger}
}

// Search returns a page of appointments filtered by patient, date, medic,
// and status.
// Route: GET /api/appointments?patientId=&date=&medicId=&status=&page=&size=
func (h *AppointmentsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = 10
	}

	result, err := h.backend.SearchAppointments(r.Context(), backend.AppointmentSearch{
		PatientID: q.Get("patientId"),
		Date:      q.Get("date"),
		MedicID:   q.Get("medicId"),
		Status:    q.Get("status"),
	}, page, size)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Cancel frees an appointment slot.
// Route: DELETE /api/appointments/{id}
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.CancelAppointment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSchedule asks the backend to generate a month of open slots from
// the working-hours window, the lunch break, and the average appointment
// length.
// Route: POST /api/schedules
func (h *AppointmentsHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req backend.ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MedicID == "" || req.Month < 1 || req.Month > 12 || req.Year == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "medicId, month, and year are required"})
		return
	}

	created, err := h.backend.CreateSchedule(r.Context(), req)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.logger.Info("schedule generated",
		"medic_id", req.MedicID,
		"month", req.Month,
		"year", req.Year,
		"appointments", created.NumberOfAppointments,
	)
	writeJSON(w, http.StatusCreated, created)
}
