package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/internal/directory"
	"github.com/openclinic/frontdesk/pkg/logging"
)

type registryBackend interface {
	ListPersons(ctx context.Context) ([]backend.Person, error)
	CreatePerson(ctx context.Context, p backend.Person) (*backend.Person, error)
	UpdatePerson(ctx context.Context, id string, p backend.Person) (*backend.Person, error)
	DeletePerson(ctx context.Context, id string) error

	CreatePatient(ctx context.Context, p backend.Patient) (*backend.Patient, error)
	UpdatePatient(ctx context.Context, id string, p backend.Patient) (*backend.Patient, error)
	DeletePatient(ctx context.Context, id string) error

	CreateMedic(ctx context.Context, m backend.Medic) (*backend.Medic, error)
	UpdateMedic(ctx context.Context, id string, m backend.Medic) (*backend.Medic, error)
	DeleteMedic(ctx context.Context, id string) error

	CreateAttendant(ctx context.Context, a backend.Attendant) (*backend.Attendant, error)
	UpdateAttendant(ctx context.Context, id string, a backend.Attendant) (*backend.Attendant, error)
	DeleteAttendant(ctx context.Context, id string) error
}

// RegistryHandler serves person/patient/medic/attendant registration. The
// clinic backend wants birth dates as dd/mm/yyyy; the terminal frontends
// speak ISO, so this handler converts at the boundary in both directions.
// Every mutation invalidates the directory cache so queue views and
// searches never serve a deleted or renamed record.
type RegistryHandler struct {
	backend registryBackend
	cache   *directory.Cache
	logger  *logging.Logger
}

type RegistryHandlerConfig struct {
	Backend registryBackend
	Cache   *directory.Cache
	Logger  *logging.Logger
}

func NewRegistryHandler(cfg RegistryHandlerConfig) *RegistryHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &RegistryHandler{backend: cfg.Backend, cache: cfg.Cache, logger: cfg.Logger}
}

// toWirePerson rewrites an inbound person's birth date into the dd/mm/yyyy
// form the backend expects. A malformed date is the caller's input error.
func toWirePerson(p *backend.Person) error {
	if p == nil {
		return nil
	}
	wire, err := backend.WireDate(p.DateOfBirth)
	if err != nil {
		return err
	}
	p.DateOfBirth = wire
	return nil
}

// toISOPerson converts an outbound person's birth date back to ISO. A date
// the backend itself stored in an unexpected shape passes through unchanged;
// the record is still usable.
func toISOPerson(p *backend.Person) {
	if p == nil {
		return
	}
	if iso, err := backend.ISODate(p.DateOfBirth); err == nil {
		p.DateOfBirth = iso
	}
}

// invalidate drops the given directory kinds, logging instead of failing:
// the next read-through refetches anyway.
func (h *RegistryHandler) invalidate(ctx context.Context, kinds ...directory.Kind) {
	if h.cache != nil {
		h.cache.Invalidate(ctx, kinds...)
	}
}

// personKinds covers every list embedding person data. A person edit can
// surface through any of them.
var personKinds = []directory.Kind{
	directory.KindPersons,
	directory.KindPatients,
	directory.KindMedics,
	directory.KindAttendants,
}

// --- Persons -----------------------------------------------------------

// ListPersons returns the registry with ISO birth dates.
// Route: GET /api/persons
func (h *RegistryHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.cache.Persons(r.Context())
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	for i := range persons {
		toISOPerson(&persons[i])
	}
	writeJSON(w, http.StatusOK, persons)
}

// CreatePerson registers a person.
// Route: POST /api/persons
func (h *RegistryHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var p backend.Person
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := toWirePerson(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	created, err := h.backend.CreatePerson(r.Context(), p)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), personKinds...)
	toISOPerson(created)
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePerson edits a person record.
// Route: PATCH /api/persons/{id}
func (h *RegistryHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	var p backend.Person
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := toWirePerson(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	updated, err := h.backend.UpdatePerson(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), personKinds...)
	toISOPerson(updated)
	writeJSON(w, http.StatusOK, updated)
}

// DeletePerson removes a person record.
// Route: DELETE /api/persons/{id}
func (h *RegistryHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeletePerson(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), personKinds...)
	w.WriteHeader(http.StatusNoContent)
}

// --- Patients ----------------------------------------------------------

// ListPatients returns registered patients.
// Route: GET /api/patients
func (h *RegistryHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.cache.Patients(r.Context())
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	for i := range patients {
		toISOPerson(patients[i].Person)
	}
	writeJSON(w, http.StatusOK, patients)
}

// CreatePatient registers a patient.
// Route: POST /api/patients
func (h *RegistryHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var p backend.Patient
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := toWirePerson(p.Person); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	created, err := h.backend.CreatePatient(r.Context(), p)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindPatients)
	toISOPerson(created.Person)
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePatient edits a patient record.
// Route: PATCH /api/patients/{id}
func (h *RegistryHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var p backend.Patient
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := toWirePerson(p.Person); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	updated, err := h.backend.UpdatePatient(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindPatients)
	toISOPerson(updated.Person)
	writeJSON(w, http.StatusOK, updated)
}

// DeletePatient removes a patient record.
// Route: DELETE /api/patients/{id}
func (h *RegistryHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeletePatient(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindPatients)
	w.WriteHeader(http.StatusNoContent)
}

// --- Medics ------------------------------------------------------------

// ListMedics returns registered medics.
// Route: GET /api/medics
func (h *RegistryHandler) ListMedics(w http.ResponseWriter, r *http.Request) {
	medics, err := h.cache.Medics(r.Context())
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	for i := range medics {
		toISOPerson(medics[i].Person)
	}
	writeJSON(w, http.StatusOK, medics)
}

// CreateMedic registers a medic.
// Route: POST /api/medics
func (h *RegistryHandler) CreateMedic(w http.ResponseWriter, r *http.Request) {
	var m backend.Medic
	if !decodeJSON(w, r, &m) {
		return
	}
	if err := toWirePerson(m.Person); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	created, err := h.backend.CreateMedic(r.Context(), m)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindMedics)
	toISOPerson(created.Person)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateMedic edits a medic record.
// Route: PATCH /api/medics/{id}
func (h *RegistryHandler) UpdateMedic(w http.ResponseWriter, r *http.Request) {
	var m backend.Medic
	if !decodeJSON(w, r, &m) {
		return
	}
	if err := toWirePerson(m.Person); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	updated, err := h.backend.UpdateMedic(r.Context(), chi.URLParam(r, "id"), m)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindMedics)
	toISOPerson(updated.Person)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMedic removes a medic record.
// Route: DELETE /api/medics/{id}
func (h *RegistryHandler) DeleteMedic(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteMedic(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindMedics)
	w.WriteHeader(http.StatusNoContent)
}

// --- Attendants --------------------------------------------------------

// ListAttendants returns registered attendants.
// Route: GET /api/attendants
func (h *RegistryHandler) ListAttendants(w http.ResponseWriter, r *http.Request) {
	attendants, err := h.cache.Attendants(r.Context())
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	for i := range attendants {
		toISOPerson(attendants[i].Person)
	}
	writeJSON(w, http.StatusOK, attendants)
}

// CreateAttendant registers an attendant with a ticket window.
// Route: POST /api/attendants
func (h *RegistryHandler) CreateAttendant(w http.ResponseWriter, r *http.Request) {
	var a backend.Attendant
	if !decodeJSON(w, r, &a) {
		return
	}
	if err := toWirePerson(a.Person); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	created, err := h.backend.CreateAttendant(r.Context(), a)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindAttendants)
	toISOPerson(created.Person)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAttendant edits an attendant record.
// Route: PATCH /api/attendants/{id}
func (h *RegistryHandler) UpdateAttendant(w http.ResponseWriter, r *http.Request) {
	var a backend.Attendant
	if !decodeJSON(w, r, &a) {
		return
	}
	if err := toWirePerson(a.Person); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	updated, err := h.backend.UpdateAttendant(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindAttendants)
	toISOPerson(updated.Person)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAttendant removes an attendant record.
// Route: DELETE /api/attendants/{id}
func (h *RegistryHandler) DeleteAttendant(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteAttendant(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFlowError(w, h.logger, err)
		return
	}
	h.invalidate(r.Context(), directory.KindAttendants)
	w.WriteHeader(http.StatusNoContent)
}
