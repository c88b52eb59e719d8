// Package backend provides a typed client for the clinic backend REST API.
// The backend is the single source of truth for every entity; this client
// holds no state and every mutation is expected to be followed by a re-fetch.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/openclinic/frontdesk/pkg/logging"
)

// APIError is a non-2xx response from the backend. Message carries the error
// body verbatim so callers can surface it to the user unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// AsAPIError unwraps err into an APIError if one is present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// LatencyObserver records the duration of backend requests, labelled by a
// bounded operation name (method plus the first path segment).
type LatencyObserver interface {
	ObserveBackendLatency(operation string, seconds float64)
}

// Client is an HTTP client for the clinic backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	tracer     trace.Tracer
	latency    LatencyObserver
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLatencyObserver publishes per-request timings to a metrics sink.
func WithLatencyObserver(obs LatencyObserver) ClientOption {
	return func(c *Client) {
		c.latency = obs
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a backend client. baseURL should include the API prefix
// (e.g. "http://localhost:8080/api").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.Default(),
		tracer: otel.Tracer("github.com/openclinic/frontdesk/internal/backend"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do issues one request and decodes the response into out (when non-nil).
// 204 and empty bodies decode to the zero value; non-2xx responses become an
// *APIError carrying the body verbatim.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("backend %s %s", method, path))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.latency != nil {
		c.latency.ObserveBackendLatency(operationLabel(method, path), time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		span.SetStatus(codes.Error, apiErr.Error())
		c.logger.Debug("backend error response", "method", method, "path", path, "status", resp.StatusCode, "body", apiErr.Message)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend: decode %s %s response: %w", method, path, err)
	}
	return nil
}

// operationLabel collapses a request path to its first segment so record ids
// never become metric label values.
func operationLabel(method, path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return method + " /" + p
}

// --- Persons -----------------------------------------------------------

func (c *Client) ListPersons(ctx context.Context) ([]Person, error) {
	var out []Person
	err := c.do(ctx, http.MethodGet, "/persons", nil, nil, &out)
	return out, err
}

func (c *Client) CreatePerson(ctx context.Context, p Person) (*Person, error) {
	var out Person
	if err := c.do(ctx, http.MethodPost, "/persons", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePerson(ctx context.Context, id string, p Person) (*Person, error) {
	var out Person
	if err := c.do(ctx, http.MethodPatch, "/persons/"+id, nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePerson(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/persons/"+id, nil, nil, nil)
}

// --- Patients ----------------------------------------------------------

func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	var out []Patient
	err := c.do(ctx, http.MethodGet, "/patients", nil, nil, &out)
	return out, err
}

func (c *Client) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodPost, "/patients", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id string, p Patient) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodPatch, "/patients/"+id, nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePatient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/patients/"+id, nil, nil, nil)
}

// --- Medics ------------------------------------------------------------

func (c *Client) ListMedics(ctx context.Context) ([]Medic, error) {
	var out []Medic
	err := c.do(ctx, http.MethodGet, "/medics", nil, nil, &out)
	return out, err
}

func (c *Client) CreateMedic(ctx context.Context, m Medic) (*Medic, error) {
	var out Medic
	if err := c.do(ctx, http.MethodPost, "/medics", nil, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMedic(ctx context.Context, id string, m Medic) (*Medic, error) {
	var out Medic
	if err := c.do(ctx, http.MethodPatch, "/medics/"+id, nil, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMedic(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/medics/"+id, nil, nil, nil)
}

// --- Attendants --------------------------------------------------------

func (c *Client) ListAttendants(ctx context.Context) ([]Attendant, error) {
	var out []Attendant
	err := c.do(ctx, http.MethodGet, "/attendants", nil, nil, &out)
	return out, err
}

func (c *Client) CreateAttendant(ctx context.Context, a Attendant) (*Attendant, error) {
	var out Attendant
	if err := c.do(ctx, http.MethodPost, "/attendants", nil, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAttendant(ctx context.Context, id string, a Attendant) (*Attendant, error) {
	var out Attendant
	if err := c.do(ctx, http.MethodPatch, "/attendants/"+id, nil, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAttendant(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/attendants/"+id, nil, nil, nil)
}

// --- Tickets -----------------------------------------------------------

func (c *Client) ListTickets(ctx context.Context) ([]Ticket, error) {
	var out []Ticket
	err := c.do(ctx, http.MethodGet, "/tickets", nil, nil, &out)
	return out, err
}

func (c *Client) CreateTicket(ctx context.Context, req TicketRequest) (*Ticket, error) {
	var out Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTicket(ctx context.Context, id string, req TicketRequest) (*Ticket, error) {
	var out Ticket
	if err := c.do(ctx, http.MethodPatch, "/tickets/"+id, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tickets/"+id, nil, nil, nil)
}

// CompleteTicket marks a medic-called ticket as served.
func (c *Client) CompleteTicket(ctx context.Context, id string) (*Ticket, error) {
	var out Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets/"+id+"/complete", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkTicketUnredeemed marks an attendant-called ticket whose holder never
// showed up.
func (c *Client) MarkTicketUnredeemed(ctx context.Context, id string) (*Ticket, error) {
	var out Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets/"+id+"/unredeemed", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RedirectTicket rebinds a generic-queue ticket to a specific medic. The
// backend rejects it when the patient has no same-day appointment with that
// medic.
func (c *Client) RedirectTicket(ctx context.Context, id string, req TicketRedirect) (*Ticket, error) {
	var out Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets/"+id+"/redirect", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Ticket queues -----------------------------------------------------

func (c *Client) ListTicketQueues(ctx context.Context) ([]TicketQueue, error) {
	var out []TicketQueue
	err := c.do(ctx, http.MethodGet, "/ticket-queues", nil, nil, &out)
	return out, err
}

func (c *Client) CreateTicketQueue(ctx context.Context, req TicketQueueRequest) (*TicketQueue, error) {
	var out TicketQueue
	if err := c.do(ctx, http.MethodPost, "/ticket-queues", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallNextTicket advances the queue. The attendant id (when present) rides
// as a query parameter; the payload form also carries it plus the medic id.
func (c *Client) CallNextTicket(ctx context.Context, queueID string, req CallNextRequest) (*Ticket, error) {
	var query url.Values
	if req.AttendantID != "" {
		query = url.Values{"attendantId": {req.AttendantID}}
	}
	var out Ticket
	if err := c.do(ctx, http.MethodPost, "/ticket-queues/"+queueID+"/call-next", query, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Schedules ---------------------------------------------------------

// CreateSchedule generates a month of open appointments for a medic.
func (c *Client) CreateSchedule(ctx context.Context, req ScheduleRequest) (*ScheduleResponse, error) {
	var out ScheduleResponse
	if err := c.do(ctx, http.MethodPost, "/schedules", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Appointments ------------------------------------------------------

// ScheduleAppointment books an open slot for a patient. The response is the
// authoritative date/time of the booking.
func (c *Client) ScheduleAppointment(ctx context.Context, req ScheduleAppointmentRequest) (*ScheduledAppointment, error) {
	var out ScheduledAppointment
	if err := c.do(ctx, http.MethodPatch, "/appointments/scheduleAppointment", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableByMedic lists the medic's open slots grouped by date.
func (c *Client) AvailableByMedic(ctx context.Context, medicID string) ([]GroupedAppointments, error) {
	var out []GroupedAppointments
	err := c.do(ctx, http.MethodGet, "/appointments/availableByMedic/"+medicID, nil, nil, &out)
	return out, err
}

func (c *Client) CancelAppointment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/appointments/"+id+"/cancel", nil, nil, nil)
}

// SearchAppointments runs the paginated filter query. page is zero-indexed.
func (c *Client) SearchAppointments(ctx context.Context, criteria AppointmentSearch, page, size int) (*AppointmentPage, error) {
	query := url.Values{}
	if criteria.PatientID != "" {
		query.Set("patientId", criteria.PatientID)
	}
	if criteria.Date != "" {
		query.Set("date", criteria.Date)
	}
	if criteria.MedicID != "" {
		query.Set("medicId", criteria.MedicID)
	}
	if criteria.Status != "" {
		query.Set("status", criteria.Status)
	}
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("size", fmt.Sprintf("%d", size))

	var out AppointmentPage
	if err := c.do(ctx, http.MethodGet, "/appointments/search", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
