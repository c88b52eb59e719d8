package handlers

import (
	"net/http"

	"github.com/openclinic/frontdesk/internal/display"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// DisplayHandler serves the waiting-room board snapshot. Screens that can
// hold a websocket get pushes from the hub instead; this endpoint is the
// polling fallback and the first paint.
type DisplayHandler struct {
	board  *display.Service
	logger *logging.Logger
}

type DisplayHandlerConfig struct {
	Board  *display.Service
	Logger *logging.Logger
}

func NewDisplayHandler(cfg DisplayHandlerConfig) *DisplayHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &DisplayHandler{board: cfg.Board, logger: cfg.Logger}
}

// Board returns the current waiting-room board.
// Route: GET /api/display/board
func (h *DisplayHandler) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Board(r.Context())
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
