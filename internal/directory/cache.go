// Package directory is the shared read-through cache over the backend's
// person/patient/medic/attendant registries. Views that previously would
// each fetch the full lists on their own go through a single cache keyed by
// entity type; registry mutations invalidate the affected kinds.
package directory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// Lister is the slice of the backend client the directory reads through to.
type Lister interface {
	ListPersons(ctx context.Context) ([]backend.Person, error)
	ListPatients(ctx context.Context) ([]backend.Patient, error)
	ListMedics(ctx context.Context) ([]backend.Medic, error)
	ListAttendants(ctx context.Context) ([]backend.Attendant, error)
}

// Cache is the read-through directory. Reads hit the store first and fall
// back to the backend, populating the store on the way out. Store failures
// degrade to direct backend reads; they are logged, never surfaced.
type Cache struct {
	backend Lister
	store   Store
	logger  *logging.Logger
}

func NewCache(lister Lister, store Store, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{backend: lister, store: store, logger: logger}
}

func (c *Cache) Persons(ctx context.Context) ([]backend.Person, error) {
	return readThrough(ctx, c, KindPersons, c.backend.ListPersons)
}

func (c *Cache) Patients(ctx context.Context) ([]backend.Patient, error) {
	return readThrough(ctx, c, KindPatients, c.backend.ListPatients)
}

func (c *Cache) Medics(ctx context.Context) ([]backend.Medic, error) {
	return readThrough(ctx, c, KindMedics, c.backend.ListMedics)
}

func (c *Cache) Attendants(ctx context.Context) ([]backend.Attendant, error) {
	return readThrough(ctx, c, KindAttendants, c.backend.ListAttendants)
}

// Invalidate drops the cached lists for the given kinds. Called after every
// registry mutation so the next read refetches authoritative state.
func (c *Cache) Invalidate(ctx context.Context, kinds ...Kind) {
	for _, kind := range kinds {
		if err := c.store.Invalidate(ctx, kind); err != nil {
			c.logger.Warn("directory invalidate failed", "kind", kind, "error", err)
		}
	}
}

func readThrough[T any](ctx context.Context, c *Cache, kind Kind, fetch func(context.Context) ([]T, error)) ([]T, error) {
	data, ok, err := c.store.Get(ctx, kind)
	if err != nil {
		c.logger.Warn("directory store read failed", "kind", kind, "error", err)
	} else if ok {
		var cached []T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("directory cache entry corrupt, refetching", "kind", kind)
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory: fetch %s: %w", kind, err)
	}

	if data, err := json.Marshal(fresh); err == nil {
		if err := c.store.Set(ctx, kind, data); err != nil {
			c.logger.Warn("directory store write failed", "kind", kind, "error", err)
		}
	}
	return fresh, nil
}

// MedicByID finds a medic in a directory list; nil when absent.
func MedicByID(medics []backend.Medic, id string) *backend.Medic {
	if id == "" {
		return nil
	}
	for i := range medics {
		if medics[i].ID == id {
			return &medics[i]
		}
	}
	return nil
}

// PatientByID finds a patient in a directory list; nil when absent.
func PatientByID(patients []backend.Patient, id string) *backend.Patient {
	if id == "" {
		return nil
	}
	for i := range patients {
		if patients[i].ID == id {
			return &patients[i]
		}
	}
	return nil
}

// AttendantByID finds an attendant in a directory list; nil when absent.
func AttendantByID(attendants []backend.Attendant, id string) *backend.Attendant {
	if id == "" {
		return nil
	}
	for i := range attendants {
		if attendants[i].ID == id {
			return &attendants[i]
		}
	}
	return nil
}
