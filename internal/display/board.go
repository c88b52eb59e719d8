// Package display derives the waiting-room board from the live ticket
// stream and pushes it to connected screens.
package display

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// CalledTicket is one board row: a ticket currently called plus where its
// holder should go.
type CalledTicket struct {
	TicketNum   int                    `json:"ticketNum"`
	Priority    backend.TicketPriority `json:"priority"`
	Location    string                 `json:"location"`
	PatientName string                 `json:"patientName,omitempty"`
}

// Board is the derived waiting-room state: the most recently called ticket
// plus up to four before it.
type Board struct {
	Date    string         `json:"date"`
	Current *CalledTicket  `json:"current,omitempty"`
	History []CalledTicket `json:"history"`
}

const historySize = 4

// Backend is the slice of the clinic API the board reads.
type Backend interface {
	ListTickets(ctx context.Context) ([]backend.Ticket, error)
	ListTicketQueues(ctx context.Context) ([]backend.TicketQueue, error)
}

// Directory resolves attendants (for window numbers) and patients (for
// names). Both degrade to placeholders when unavailable.
type Directory interface {
	Attendants(ctx context.Context) ([]backend.Attendant, error)
	Patients(ctx context.Context) ([]backend.Patient, error)
}

type Service struct {
	backend   Backend
	directory Directory
	logger    *logging.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(be Backend, dir Directory, opts ...Option) *Service {
	s := &Service{
		backend:   be,
		directory: dir,
		logger:    logging.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Board fetches the ticket stream and derives the waiting-room view: today's
// called tickets, most recent first, split into current and history.
func (s *Service) Board(ctx context.Context) (*Board, error) {
	tickets, err := s.backend.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("display: list tickets: %w", err)
	}
	queues, err := s.backend.ListTicketQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("display: list queues: %w", err)
	}

	queuesByID := make(map[string]backend.TicketQueue, len(queues))
	for _, q := range queues {
		queuesByID[q.ID] = q
	}

	attendantWindows := map[string]int{}
	if attendants, err := s.directory.Attendants(ctx); err != nil {
		s.logger.Warn("attendant directory unavailable", "error", err)
	} else {
		for _, a := range attendants {
			attendantWindows[a.ID] = a.TicketWindow
		}
	}
	patientNames := map[string]string{}
	if patients, err := s.directory.Patients(ctx); err != nil {
		s.logger.Warn("patient directory unavailable", "error", err)
	} else {
		for _, p := range patients {
			if p.Person != nil {
				patientNames[p.ID] = p.Person.Name
			}
		}
	}

	today := s.now().Format(time.DateOnly)

	// Tickets arrive in creation order; reversing yields most-recent-first.
	var called []CalledTicket
	for i := len(tickets) - 1; i >= 0; i-- {
		t := tickets[i]
		queue, ok := queuesByID[t.TicketQueueID]
		if !ok || queue.Date != today || !t.Status.Called() {
			continue
		}
		called = append(called, CalledTicket{
			TicketNum:   t.TicketNum,
			Priority:    t.TicketPriority,
			Location:    location(t, queue, attendantWindows),
			PatientName: patientNames[t.PatientID],
		})
	}

	board := &Board{Date: today, History: []CalledTicket{}}
	if len(called) > 0 {
		board.Current = &called[0]
		rest := called[1:]
		if len(rest) > historySize {
			rest = rest[:historySize]
		}
		board.History = rest
	}
	return board, nil
}

// location tells the ticket holder where to go: a consultation room for
// medic-called tickets, an attendant window for generic ones, or a
// processing placeholder while the call is still settling.
func location(t backend.Ticket, queue backend.TicketQueue, windows map[string]int) string {
	if !queue.Generic() {
		room := "?"
		if queue.ConsultationRoom != 0 {
			room = strconv.Itoa(queue.ConsultationRoom)
		}
		return "Room " + room
	}
	if t.AttendantID != "" {
		window := "?"
		if w := windows[t.AttendantID]; w != 0 {
			window = strconv.Itoa(w)
		}
		return "Window " + window
	}
	return "Processing..."
}
