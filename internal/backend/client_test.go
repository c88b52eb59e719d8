package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Run("creates client with defaults", func(t *testing.T) {
		client := NewClient("http://localhost:8080/api/")
		if client == nil {
			t.Fatal("expected non-nil client")
		}
		if client.baseURL != "http://localhost:8080/api" {
			t.Errorf("expected trailing slash trimmed, got %s", client.baseURL)
		}
	})

	t.Run("creates client with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		client := NewClient("http://localhost:8080/api", WithHTTPClient(customClient))
		if client.httpClient != customClient {
			t.Error("expected custom HTTP client to be set")
		}
	})
}

func TestClient_ErrorBodySurfacedVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("A Ticket Queue for this date already exists"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateTicketQueue(context.Background(), TicketQueueRequest{})
	if err == nil {
		t.Fatal("expected error for conflict response")
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "A Ticket Queue for this date already exists" {
		t.Errorf("expected verbatim body, got %q", apiErr.Message)
	}
}

func TestClient_EmptyBodyStatus(t *testing.T) {
	t.Run("204 decodes to nothing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		if err := client.DeletePatient(context.Background(), "p1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty 200 body decodes to zero value", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		ticket, err := client.CompleteTicket(context.Background(), "t1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.ID != "" {
			t.Errorf("expected zero ticket, got %+v", ticket)
		}
	})

	t.Run("error without body falls back to status text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.ListTickets(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		apiErr, _ := AsAPIError(err)
		if apiErr.Error() != http.StatusText(http.StatusInternalServerError) {
			t.Errorf("expected status text fallback, got %q", apiErr.Error())
		}
	})
}

func TestClient_CallNextTicket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ticket-queues/q1/call-next" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("attendantId"); got != "a1" {
			t.Errorf("expected attendantId query param, got %q", got)
		}
		var req CallNextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if req.TicketQueueID != "q1" || req.AttendantID != "a1" {
			t.Errorf("unexpected payload %+v", req)
		}
		json.NewEncoder(w).Encode(Ticket{ID: "t9", TicketNum: 42, Status: StatusCalledByAttendant})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ticket, err := client.CallNextTicket(context.Background(), "q1", CallNextRequest{
		TicketQueueID: "q1",
		AttendantID:   "a1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.TicketNum != 42 || ticket.Status != StatusCalledByAttendant {
		t.Errorf("unexpected ticket %+v", ticket)
	}
}

func TestClient_SearchAppointments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("medicId") != "m1" || q.Get("status") != "SCHEDULED" {
			t.Errorf("unexpected filters: %v", q)
		}
		if q.Get("patientId") != "" {
			t.Errorf("empty filters must be omitted, got patientId=%q", q.Get("patientId"))
		}
		if q.Get("page") != "2" || q.Get("size") != "10" {
			t.Errorf("unexpected paging: %v", q)
		}
		json.NewEncoder(w).Encode(AppointmentPage{
			Content:       []Appointment{{ID: "ap1", Date: "2024-06-10", Status: AppointmentScheduled}},
			TotalPages:    3,
			TotalElements: 25,
			Number:        2,
			Last:          true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	page, err := client.SearchAppointments(context.Background(), AppointmentSearch{MedicID: "m1", Status: "SCHEDULED"}, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].ID != "ap1" {
		t.Errorf("unexpected page content: %+v", page.Content)
	}
	if !page.Last || page.TotalElements != 25 {
		t.Errorf("unexpected page envelope: %+v", page)
	}
}

func TestClockTime_UnmarshalBothForms(t *testing.T) {
	t.Run("string form", func(t *testing.T) {
		var appt Appointment
		raw := `{"id":"a1","date":"2024-06-10","time":"09:30:00","status":"OPEN"}`
		if err := json.Unmarshal([]byte(raw), &appt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if appt.Time.Hour != 9 || appt.Time.Minute != 30 {
			t.Errorf("expected 09:30, got %s", appt.Time)
		}
	})

	t.Run("object form", func(t *testing.T) {
		var appt Appointment
		raw := `{"id":"a1","time":{"hour":14,"minute":5,"second":0,"nano":0}}`
		if err := json.Unmarshal([]byte(raw), &appt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if appt.Time.Hour != 14 || appt.Time.Minute != 5 {
			t.Errorf("expected 14:05, got %s", appt.Time)
		}
	})

	t.Run("null", func(t *testing.T) {
		var appt Appointment
		if err := json.Unmarshal([]byte(`{"id":"a1","time":null}`), &appt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if appt.Time.Hour != 0 || appt.Time.Minute != 0 {
			t.Errorf("expected zero time, got %s", appt.Time)
		}
	})

	t.Run("malformed seconds rejected", func(t *testing.T) {
		var appt Appointment
		if err := json.Unmarshal([]byte(`{"id":"a1","time":"09:30:xx"}`), &appt); err == nil {
			t.Fatal("expected error for non-numeric seconds")
		}
	})
}

func TestWireDateRoundTrip(t *testing.T) {
	wire, err := WireDate("1990-03-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wire != "07/03/1990" {
		t.Errorf("expected 07/03/1990, got %s", wire)
	}

	iso, err := ISODate(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iso != "1990-03-07" {
		t.Errorf("expected 1990-03-07, got %s", iso)
	}

	if _, err := WireDate("07/03/1990"); err == nil {
		t.Error("expected error for non-ISO input")
	}
	if got, _ := WireDate(""); got != "" {
		t.Errorf("expected empty passthrough, got %q", got)
	}
}

type latencyRecorder struct {
	operations []string
	seconds    []float64
}

func (r *latencyRecorder) ObserveBackendLatency(operation string, seconds float64) {
	r.operations = append(r.operations, operation)
	r.seconds = append(r.seconds, seconds)
}

func TestClient_LatencyObserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Ticket{ID: "t1"})
	}))
	defer server.Close()

	rec := &latencyRecorder{}
	client := NewClient(server.URL, WithLatencyObserver(rec))

	if _, err := client.CompleteTicket(context.Background(), "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.operations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(rec.operations))
	}
	if rec.operations[0] != "POST /tickets" {
		t.Errorf("expected record ids collapsed out of the label, got %q", rec.operations[0])
	}
	if rec.seconds[0] < 0 {
		t.Errorf("expected non-negative duration, got %f", rec.seconds[0])
	}
}
