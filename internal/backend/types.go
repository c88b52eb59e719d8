package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TicketPriority is the priority band printed on a kiosk ticket.
type TicketPriority string

const (
	PriorityNormal       TicketPriority = "NMT"
	PriorityPreferential TicketPriority = "PRT"
	PriorityExamResults  TicketPriority = "ERT"
)

// Label returns the human-readable name for the priority band.
func (p TicketPriority) Label() string {
	switch p {
	case PriorityNormal:
		return "Normal"
	case PriorityPreferential:
		return "Preferential"
	case PriorityExamResults:
		return "Exam Results"
	default:
		return string(p)
	}
}

// TicketStatus is the server-side lifecycle state of a ticket. Transitions
// happen on the backend; this service only requests them and reflects the
// returned state.
type TicketStatus string

const (
	StatusWaitingAttendant   TicketStatus = "WAITING ATTENDANT"
	StatusWaitingAppointment TicketStatus = "WAITING APPOINTMENT"
	StatusCalledByAttendant  TicketStatus = "CALLED_BY_ATTENDANT"
	StatusCalledByMedic      TicketStatus = "CALLED_BY_MEDIC"
	StatusServed             TicketStatus = "SERVED"
	StatusUnredeemed         TicketStatus = "UNREDEEMED"
)

// Called reports whether the ticket has been called and not yet resolved.
func (s TicketStatus) Called() bool {
	return s == StatusCalledByAttendant || s == StatusCalledByMedic
}

// AppointmentStatus is the lifecycle state of an appointment slot.
type AppointmentStatus string

const (
	AppointmentOpen      AppointmentStatus = "OPEN"
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentAttended  AppointmentStatus = "ATTENDED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentAbsent    AppointmentStatus = "ABSENT PATIENT"
)

// Person is the shared identity record. DateOfBirth is dd/mm/yyyy on the
// wire; use WireDate/ISODate at the boundary.
type Person struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	CPF         string `json:"cpf,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

type Patient struct {
	ID           string  `json:"id,omitempty"`
	Person       *Person `json:"person,omitempty"`
	MembershipID string  `json:"membershipId,omitempty"`
}

type Medic struct {
	ID     string  `json:"id,omitempty"`
	Person *Person `json:"person,omitempty"`
	CRM    string  `json:"crm,omitempty"`
	Type   string  `json:"type,omitempty"`
}

type Attendant struct {
	ID           string  `json:"id,omitempty"`
	Person       *Person `json:"person,omitempty"`
	TicketWindow int     `json:"ticketWindow,omitempty"`
}

// TicketQueue is a physical calling queue for one calendar date. A queue
// without a MedicID is the generic, attendant-operated queue.
type TicketQueue struct {
	ID               string `json:"id,omitempty"`
	Date             string `json:"date,omitempty"` // yyyy-mm-dd
	MedicID          string `json:"medicId,omitempty"`
	ConsultationRoom int    `json:"consultationRoom,omitempty"`
}

// Generic reports whether the queue is the attendant-operated general queue.
func (q TicketQueue) Generic() bool { return q.MedicID == "" }

// TicketQueueRequest creates a queue for today. MedicID must be an explicit
// JSON null for the generic queue, hence the pointer.
type TicketQueueRequest struct {
	MedicID          *string `json:"medicId"`
	ConsultationRoom int     `json:"consultationRoom,omitempty"`
}

// CallNextRequest advances a queue. The caller's own id rides along so the
// resulting ticket records who called it.
type CallNextRequest struct {
	TicketQueueID string `json:"ticketQueueId,omitempty"`
	AttendantID   string `json:"attendantId,omitempty"`
	MedicID       string `json:"medicId,omitempty"`
}

type Ticket struct {
	ID             string         `json:"id,omitempty"`
	TicketNum      int            `json:"ticketNum,omitempty"`
	TicketPriority TicketPriority `json:"ticketPriority,omitempty"`
	Status         TicketStatus   `json:"status,omitempty"`
	TicketQueueID  string         `json:"ticketQueueId,omitempty"`
	MedicID        string         `json:"medicId,omitempty"`
	AttendantID    string         `json:"attendantId,omitempty"`
	PatientID      string         `json:"patientId,omitempty"`
}

type TicketRequest struct {
	TicketQueueID  string         `json:"ticketQueueId,omitempty"`
	TicketPriority TicketPriority `json:"ticketPriority,omitempty"`
}

type TicketRedirect struct {
	MedicID   string `json:"medicId,omitempty"`
	PatientID string `json:"patientId,omitempty"`
}

// ScheduleRequest asks the backend to generate a month of open appointments
// for a medic. It is a generation request, not stored state this service
// manipulates further.
type ScheduleRequest struct {
	MedicID                   string `json:"medicId,omitempty"`
	Month                     int    `json:"month,omitempty"`
	Year                      int    `json:"year,omitempty"`
	AttendanceHourStart       int    `json:"attendanceHourStart"`
	AttendanceMinuteStart     int    `json:"attendanceMinuteStart"`
	AttendanceHourEnd         int    `json:"attendanceHourEnd"`
	AttendanceMinuteEnd       int    `json:"attendanceMinuteEnd"`
	LunchHourStart            int    `json:"lunchHourStart"`
	LunchMinuteStart          int    `json:"lunchMinuteStart"`
	LunchHourEnd              int    `json:"lunchHourEnd"`
	LunchMinuteEnd            int    `json:"lunchMinuteEnd"`
	AverageTimeForAppointment int    `json:"averageTimeForAppointment,omitempty"`
}

type ScheduleYear struct {
	Value int  `json:"value,omitempty"`
	Leap  bool `json:"leap,omitempty"`
}

type ScheduleResponse struct {
	ID                   string       `json:"id,omitempty"`
	MedicID              string       `json:"medicId,omitempty"`
	Month                string       `json:"month,omitempty"` // "JANUARY" .. "DECEMBER"
	Year                 ScheduleYear `json:"year,omitempty"`
	NumberOfAppointments int          `json:"numberOfAppointments,omitempty"`
}

// ScheduleAppointmentRequest books one open slot for a patient.
type ScheduleAppointmentRequest struct {
	PatientID     string `json:"patientId,omitempty"`
	AppointmentID string `json:"appointmentId,omitempty"`
}

// ScheduledAppointment is the authoritative booking confirmation.
type ScheduledAppointment struct {
	Date   string `json:"date,omitempty"` // yyyy-mm-dd
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// ClockTime decodes the backend's time-of-day field, which may arrive either
// as an "HH:MM:SS" string or as a structured {hour, minute, second, nano}
// object depending on the serializer.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second,omitempty"`
	Nano   int `json:"nano,omitempty"`
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*t = ClockTime{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("backend: decode time string: %w", err)
		}
		parts := strings.Split(s, ":")
		if len(parts) < 2 {
			return fmt.Errorf("backend: malformed time %q", s)
		}
		var parsed ClockTime
		if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &parsed.Hour, &parsed.Minute); err != nil {
			return fmt.Errorf("backend: malformed time %q: %w", s, err)
		}
		if len(parts) > 2 {
			if _, err := fmt.Sscanf(parts[2], "%d", &parsed.Second); err != nil {
				return fmt.Errorf("backend: malformed time %q: %w", s, err)
			}
		}
		*t = parsed
		return nil
	}
	type alias ClockTime
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("backend: decode time object: %w", err)
	}
	*t = ClockTime(obj)
	return nil
}

// String formats the time as HH:MM.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

type Appointment struct {
	ID          string            `json:"id,omitempty"`
	Date        string            `json:"date,omitempty"` // yyyy-mm-dd
	Time        ClockTime         `json:"time,omitempty"`
	Status      AppointmentStatus `json:"status,omitempty"`
	PatientID   string            `json:"patientId,omitempty"`
	PatientName string            `json:"patientName,omitempty"`
	MedicID     string            `json:"medicId,omitempty"`
	MedicName   string            `json:"medicName,omitempty"`
}

// AvailableAppointmentTime is one bookable open slot.
type AvailableAppointmentTime struct {
	ID     string `json:"id,omitempty"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// GroupedAppointments is one date's worth of open slots, as returned by the
// availableByMedic query. Slots arrive sorted by the backend.
type GroupedAppointments struct {
	Date         string                     `json:"date,omitempty"` // yyyy-mm-dd
	Appointments []AvailableAppointmentTime `json:"appointments,omitempty"`
}

// AppointmentSearch holds the optional filters for the paginated search.
type AppointmentSearch struct {
	PatientID string
	Date      string
	MedicID   string
	Status    string
}

// AppointmentPage is the Spring-style pagination envelope.
type AppointmentPage struct {
	Content       []Appointment `json:"content"`
	TotalPages    int           `json:"totalPages"`
	TotalElements int           `json:"totalElements"`
	Size          int           `json:"size"`
	Number        int           `json:"number"`
	First         bool          `json:"first"`
	Last          bool          `json:"last"`
	Empty         bool          `json:"empty"`
}
