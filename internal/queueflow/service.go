// Package queueflow drives the ticket-queue workflow: partitioning queues by
// operator role, calling the next ticket, completing, marking unredeemed,
// redirecting, queue creation, and kiosk ticket issuance. All state lives in
// the clinic backend; this layer adds the client-side preconditions once
// enforced per terminal.
package queueflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// Role identifies which terminal is operating the queue views. The partition
// rules depend on it: medics see only their own bound queues, attendants only
// the general queue, everything else sees all of today's queues.
type Role string

const (
	RoleMedic     Role = "MEDIC"
	RoleAttendant Role = "ATTENDANT"
	RolePatient   Role = "PATIENT"
	RoleKiosk     Role = "KIOSK"
	RoleDisplay   Role = "DISPLAY"
)

// Sentinel errors double as the user-facing messages; handlers render them
// inline. None of them reaches the network.
var (
	ErrMissingCaller      = errors.New("caller id is required to call the next ticket")
	ErrQueueRoleMismatch  = errors.New("medics call only their own queues and attendants only the general queue")
	ErrMissingSelection   = errors.New("both a medic and a patient must be selected")
	ErrQueueNotFound      = errors.New("queue not found among today's queues")
	ErrNoAppointment      = errors.New("this patient does not have a scheduled appointment with this medic today")
	ErrNoGenericQueue     = errors.New("no general queue available for today; please ask an attendant to create one")
	ErrGenericQueueExists = errors.New("a general queue already exists today")
	ErrMedicQueueExists   = errors.New("a queue for this medic already exists today")
)

// Backend is the slice of the clinic API this workflow touches.
type Backend interface {
	ListTickets(ctx context.Context) ([]backend.Ticket, error)
	ListTicketQueues(ctx context.Context) ([]backend.TicketQueue, error)
	CreateTicket(ctx context.Context, req backend.TicketRequest) (*backend.Ticket, error)
	CreateTicketQueue(ctx context.Context, req backend.TicketQueueRequest) (*backend.TicketQueue, error)
	CallNextTicket(ctx context.Context, queueID string, req backend.CallNextRequest) (*backend.Ticket, error)
	CompleteTicket(ctx context.Context, id string) (*backend.Ticket, error)
	MarkTicketUnredeemed(ctx context.Context, id string) (*backend.Ticket, error)
	RedirectTicket(ctx context.Context, id string, req backend.TicketRedirect) (*backend.Ticket, error)
}

// Directory resolves medic records for queue display names. Lookups degrade
// to placeholders when the directory fetch fails or races the queue fetch.
type Directory interface {
	Medics(ctx context.Context) ([]backend.Medic, error)
}

// QueueView is a today's queue enriched with its human-readable name.
type QueueView struct {
	backend.TicketQueue
	DisplayName string `json:"displayName"`
}

// Snapshot is one refresh of the operational queue view: today's queues
// visible to the role, plus the tickets owned by today's queues.
type Snapshot struct {
	Date    string           `json:"date"`
	Queues  []QueueView      `json:"queues"`
	Tickets []backend.Ticket `json:"tickets"`
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

// WithClock overrides the wall clock, used by tests to pin "today".
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

// Today returns the local calendar date the workflow scopes to.
func (s *Service) Today() string {
	return s.now().Format(time.DateOnly)
}

// Snapshot fetches queues and tickets, scopes both to today, and partitions
// the queues for the role. A directory failure degrades the display names to
// placeholders instead of failing the refresh.
func (s *Service) Snapshot(ctx context.Context, role Role) (*Snapshot, error) {
	queues, err := s.backend.ListTicketQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("queueflow: list queues: %w", err)
	}
	tickets, err := s.backend.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("queueflow: list tickets: %w", err)
	}

	medics, err := s.directory.Medics(ctx)
	if err != nil {
		s.logger.Warn("medic directory unavailable, using placeholders", "error", err)
		medics = nil
	}
	medicsByID := make(map[string]backend.Medic, len(medics))
	for _, m := range medics {
		medicsByID[m.ID] = m
	}

	today := s.Today()
	todaysQueueIDs := make(map[string]bool)
	var views []QueueView
	for _, q := range queues {
		if q.Date != today {
			continue
		}
		todaysQueueIDs[q.ID] = true
		if !visibleTo(role, q) {
			continue
		}
		views = append(views, QueueView{
			TicketQueue: q,
			DisplayName: displayName(q, medicsByID),
		})
	}

	var todays []backend.Ticket
	for _, t := range tickets {
		if t.TicketQueueID != "" && todaysQueueIDs[t.TicketQueueID] {
			todays = append(todays, t)
		}
	}

	return &Snapshot{Date: today, Queues: views, Tickets: todays}, nil
}

func visibleTo(role Role, q backend.TicketQueue) bool {
	switch role {
	case RoleMedic:
		return !q.Generic()
	case RoleAttendant:
		return q.Generic()
	default:
		return true
	}
}

func displayName(q backend.TicketQueue, medics map[string]backend.Medic) string {
	if q.Generic() {
		return "General Queue"
	}
	name := "Medic"
	if m, ok := medics[q.MedicID]; ok && m.Person != nil && m.Person.Name != "" {
		name = m.Person.Name
	}
	room := "?"
	if q.ConsultationRoom != 0 {
		room = strconv.Itoa(q.ConsultationRoom)
	}
	return fmt.Sprintf("%s's Queue (Room %s)", name, room)
}

// CallNext advances a queue. Two preconditions hold before any network
// traffic: the role must match the queue's partition, since medics never call
// the general queue and attendants never call a medic's queue, and the
// caller's id must be present.
func (s *Service) CallNext(ctx context.Context, role Role, queueID, attendantID, medicID string) (*backend.Ticket, error) {
	queue, err := s.findTodaysQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}

	switch role {
	case RoleAttendant:
		if !queue.Generic() {
			return nil, ErrQueueRoleMismatch
		}
		if attendantID == "" {
			return nil, ErrMissingCaller
		}
	case RoleMedic:
		if queue.Generic() {
			return nil, ErrQueueRoleMismatch
		}
		if medicID == "" {
			return nil, ErrMissingCaller
		}
	default:
		return nil, ErrQueueRoleMismatch
	}

	ticket, err := s.backend.CallNextTicket(ctx, queueID, backend.CallNextRequest{
		TicketQueueID: queueID,
		AttendantID:   attendantID,
		MedicID:       medicID,
	})
	if err != nil {
		return nil, fmt.Errorf("queueflow: call next: %w", err)
	}
	s.logger.Info("ticket called",
		"queue_id", queueID,
		"ticket_num", ticket.TicketNum,
		"status", string(ticket.Status),
	)
	return ticket, nil
}

func (s *Service) findTodaysQueue(ctx context.Context, queueID string) (*backend.TicketQueue, error) {
	queues, err := s.backend.ListTicketQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("queueflow: list queues: %w", err)
	}
	today := s.Today()
	for _, q := range queues {
		if q.ID == queueID && q.Date == today {
			return &q, nil
		}
	}
	return nil, ErrQueueNotFound
}

// Complete marks a medic-called ticket as served.
func (s *Service) Complete(ctx context.Context, ticketID string) (*backend.Ticket, error) {
	ticket, err := s.backend.CompleteTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("queueflow: complete ticket: %w", err)
	}
	return ticket, nil
}

// MarkUnredeemed records that an attendant-called ticket's holder never
// showed up.
func (s *Service) MarkUnredeemed(ctx context.Context, ticketID string) (*backend.Ticket, error) {
	ticket, err := s.backend.MarkTicketUnredeemed(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("queueflow: mark unredeemed: %w", err)
	}
	return ticket, nil
}

// Redirect rebinds a generic-queue ticket to a medic, valid only when the
// ticket's patient has a same-day appointment with that medic. The backend
// enforces the appointment check; its refusal is classified into
// ErrNoAppointment so callers can show the specific message.
func (s *Service) Redirect(ctx context.Context, ticketID, medicID, patientID string) (*backend.Ticket, error) {
	if medicID == "" || patientID == "" {
		return nil, ErrMissingSelection
	}

	ticket, err := s.backend.RedirectTicket(ctx, ticketID, backend.TicketRedirect{
		MedicID:   medicID,
		PatientID: patientID,
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "appointment") {
			return nil, ErrNoAppointment
		}
		return nil, fmt.Errorf("queueflow: redirect ticket: %w", err)
	}
	s.logger.Info("ticket redirected", "ticket_id", ticketID, "medic_id", medicID, "patient_id", patientID)
	return ticket, nil
}

// CreateQueue opens today's queue. An empty medicID creates the general
// queue. The backend allows at most one general queue and one queue per
// medic per date; its conflict comes back as the queue-specific sentinel.
func (s *Service) CreateQueue(ctx context.Context, medicID string, consultationRoom int) (*backend.TicketQueue, error) {
	req := backend.TicketQueueRequest{}
	if medicID != "" {
		req.MedicID = &medicID
		req.ConsultationRoom = consultationRoom
	}

	queue, err := s.backend.CreateTicketQueue(ctx, req)
	if err != nil {
		if isDuplicate(err) {
			if medicID != "" {
				return nil, ErrMedicQueueExists
			}
			return nil, ErrGenericQueueExists
		}
		return nil, fmt.Errorf("queueflow: create queue: %w", err)
	}
	s.logger.Info("queue created", "queue_id", queue.ID, "medic_id", medicID)
	return queue, nil
}

func isDuplicate(err error) bool {
	if apiErr, ok := backend.AsAPIError(err); ok && apiErr.StatusCode == 409 {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

// IssueTicket is the kiosk path: take a number on today's general queue.
func (s *Service) IssueTicket(ctx context.Context, priority backend.TicketPriority) (*backend.Ticket, error) {
	queues, err := s.backend.ListTicketQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("queueflow: list queues: %w", err)
	}

	today := s.Today()
	var generic *backend.TicketQueue
	for _, q := range queues {
		if q.Date == today && q.Generic() {
			generic = &q
			break
		}
	}
	if generic == nil {
		return nil, ErrNoGenericQueue
	}

	ticket, err := s.backend.CreateTicket(ctx, backend.TicketRequest{
		TicketQueueID:  generic.ID,
		TicketPriority: priority,
	})
	if err != nil {
		return nil, fmt.Errorf("queueflow: issue ticket: %w", err)
	}
	s.logger.Info("ticket issued", "ticket_num", ticket.TicketNum, "priority", string(priority))
	return ticket, nil
}
