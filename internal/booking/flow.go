// Package booking implements the appointment booking workflow: medic search,
// the month/day/slot drill-down, and the single commit action that reserves
// an open slot for a patient. The backend stays authoritative throughout:
// every successful commit is followed by a full availability re-fetch, never
// an optimistic local mutation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/internal/slots"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// ErrMissingSelection is returned when commit is attempted without both a
// selected slot and a resolved patient. No network call is made.
var ErrMissingSelection = errors.New("booking: select a time slot and a patient")

// ErrBookingInProgress guards against double-submits while a commit is in
// flight, mirroring the disabled state of the triggering control.
var ErrBookingInProgress = errors.New("booking: a booking is already in progress")

// Backend is the slice of the backend client the flow needs.
type Backend interface {
	AvailableByMedic(ctx context.Context, medicID string) ([]backend.GroupedAppointments, error)
	ScheduleAppointment(ctx context.Context, req backend.ScheduleAppointmentRequest) (*backend.ScheduledAppointment, error)
}

// Directory supplies the full lists the local substring search runs over.
type Directory interface {
	Medics(ctx context.Context) ([]backend.Medic, error)
	Patients(ctx context.Context) ([]backend.Patient, error)
}

// Selection is a snapshot of the flow's drill-down state.
type Selection struct {
	MedicID string
	Month   string // yyyy-mm
	Day     string // yyyy-mm-dd
	SlotID  string
}

// Result is a successful booking. Message restates the backend's
// authoritative date and time, not the slot as it was displayed.
type Result struct {
	Booked  *backend.ScheduledAppointment
	Message string
}

// Flow drives one booking session. It is safe for concurrent use; the HTTP
// surface shares one flow per session.
type Flow struct {
	backend   Backend
	directory Directory
	logger    *logging.Logger
	now       func() time.Time

	// fixedPatientID puts the flow in patient self-service mode: the
	// patient is supplied externally and patient search is disabled.
	fixedPatientID string

	mu       sync.Mutex
	sel      Selection
	groups   []backend.GroupedAppointments
	busy     bool
}

// Option configures a Flow.
type Option func(*Flow)

// WithFixedPatient binds the flow to a single patient (self-service mode).
func WithFixedPatient(patientID string) Option {
	return func(f *Flow) { f.fixedPatientID = patientID }
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func NewFlow(be Backend, dir Directory, opts ...Option) *Flow {
	f := &Flow{
		backend:   be,
		directory: dir,
		logger:    logging.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FixedPatient returns the bound patient id, empty in attendant-assisted
// mode.
func (f *Flow) FixedPatient() string { return f.fixedPatientID }

// SearchMedics filters the directory's medic list by case-insensitive
// substring over name, license id and specialty.
func (f *Flow) SearchMedics(ctx context.Context, query string) ([]backend.Medic, error) {
	medics, err := f.directory.Medics(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: load medics: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return medics, nil
	}
	var out []backend.Medic
	for _, m := range medics {
		name := ""
		if m.Person != nil {
			name = m.Person.Name
		}
		if containsFold(name, q) || containsFold(m.CRM, q) || containsFold(m.Type, q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// SearchPatients filters the directory's patient list by name, national id
// or membership id.
func (f *Flow) SearchPatients(ctx context.Context, query string) ([]backend.Patient, error) {
	patients, err := f.directory.Patients(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: load patients: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return patients, nil
	}
	var out []backend.Patient
	for _, p := range patients {
		name, cpf := "", ""
		if p.Person != nil {
			name, cpf = p.Person.Name, p.Person.CPF
		}
		if containsFold(name, q) || containsFold(cpf, q) || containsFold(p.MembershipID, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func containsFold(s, loweredQuery string) bool {
	return strings.Contains(strings.ToLower(s), loweredQuery)
}

// SelectMedic switches the flow to a medic: every downstream selection and
// the loaded availability are cleared first, so stale slots from a previous
// medic are never submittable, then the medic's open slots are fetched.
// An empty result is informational, not an error.
func (f *Flow) SelectMedic(ctx context.Context, medicID string) ([]backend.GroupedAppointments, error) {
	f.mu.Lock()
	f.sel = Selection{MedicID: medicID}
	f.groups = nil
	f.mu.Unlock()

	if medicID == "" {
		return nil, nil
	}

	groups, err := f.backend.AvailableByMedic(ctx, medicID)
	if err != nil {
		return nil, fmt.Errorf("booking: fetch slots: %w", err)
	}

	f.mu.Lock()
	// Only apply if the medic hasn't changed underneath the fetch.
	if f.sel.MedicID == medicID {
		f.groups = groups
	}
	f.mu.Unlock()
	return groups, nil
}

// Reset clears the medic and everything downstream. Editing the medic
// search text maps here.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sel = Selection{}
	f.groups = nil
}

// AvailableMonths derives the offerable months from the loaded availability.
func (f *Flow) AvailableMonths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slots.AvailableMonths(f.groups, f.now())
}

// SelectMonth picks a month and clears the day and slot selections.
func (f *Flow) SelectMonth(month string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sel.Month = month
	f.sel.Day = ""
	f.sel.SlotID = ""
}

// Days lists the selectable days of the selected month.
func (f *Flow) Days() []backend.GroupedAppointments {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slots.DaysForMonth(f.groups, f.sel.Month)
}

// SelectDay picks a day and clears only the slot selection.
func (f *Flow) SelectDay(day string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sel.Day = day
	f.sel.SlotID = ""
}

// Slots lists the open times of the selected day.
func (f *Flow) Slots() []backend.AvailableAppointmentTime {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slots.SlotsForDay(f.groups, f.sel.Day)
}

// SelectSlot picks a time slot.
func (f *Flow) SelectSlot(slotID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sel.SlotID = slotID
}

// Selection returns the current drill-down snapshot.
func (f *Flow) Selection() Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sel
}

// Groups returns the loaded availability.
func (f *Flow) Groups() []backend.GroupedAppointments {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups
}

// Schedule commits the booking. In self-service mode the bound patient wins;
// otherwise patientID must be resolved by the caller's patient search.
// Booking conflicts (slot taken by a concurrent actor) come back as the
// backend's message and leave the flow usable; pick another slot and retry.
func (f *Flow) Schedule(ctx context.Context, patientID string) (*Result, error) {
	if f.fixedPatientID != "" {
		patientID = f.fixedPatientID
	}

	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return nil, ErrBookingInProgress
	}
	slotID := f.sel.SlotID
	medicID := f.sel.MedicID
	if slotID == "" || patientID == "" {
		f.mu.Unlock()
		return nil, ErrMissingSelection
	}
	f.busy = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	booked, err := f.backend.ScheduleAppointment(ctx, backend.ScheduleAppointmentRequest{
		PatientID:     patientID,
		AppointmentID: slotID,
	})
	if err != nil {
		return nil, err
	}

	f.logger.Info("appointment booked",
		"medic_id", medicID,
		"patient_id", patientID,
		"date", booked.Date,
		"time", fmt.Sprintf("%02d:%02d", booked.Hour, booked.Minute),
	)

	// Re-fetch availability so the just-booked slot disappears; the refetch
	// resets the drill-down the same way a fresh medic selection does.
	if medicID != "" {
		if _, err := f.SelectMedic(ctx, medicID); err != nil {
			f.logger.Warn("availability refresh after booking failed", "medic_id", medicID, "error", err)
		}
	}

	return &Result{
		Booked:  booked,
		Message: fmt.Sprintf("Appointment scheduled successfully for %s", slots.FormatLongDateTime(booked.Date, booked.Hour, booked.Minute)),
	}, nil
}
