package directory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/frontdesk/internal/backend"
)

// fakeLister counts backend list calls per kind.
type fakeLister struct {
	medics     []backend.Medic
	patients   []backend.Patient
	attendants []backend.Attendant
	persons    []backend.Person
	calls      map[Kind]int
	err        error
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		medics:   []backend.Medic{{ID: "m1", Person: &backend.Person{Name: "Dr. Silva"}, CRM: "CRM-123", Type: "Cardiology"}},
		patients: []backend.Patient{{ID: "p1", Person: &backend.Person{Name: "Jane", CPF: "11122233344"}}},
		attendants: []backend.Attendant{
			{ID: "a1", Person: &backend.Person{Name: "Carlos"}, TicketWindow: 2},
		},
		persons: []backend.Person{{ID: "per1", Name: "Jane"}},
		calls:   map[Kind]int{},
	}
}

func (f *fakeLister) ListPersons(context.Context) ([]backend.Person, error) {
	f.calls[KindPersons]++
	return f.persons, f.err
}

func (f *fakeLister) ListPatients(context.Context) ([]backend.Patient, error) {
	f.calls[KindPatients]++
	return f.patients, f.err
}

func (f *fakeLister) ListMedics(context.Context) ([]backend.Medic, error) {
	f.calls[KindMedics]++
	return f.medics, f.err
}

func (f *fakeLister) ListAttendants(context.Context) ([]backend.Attendant, error) {
	f.calls[KindAttendants]++
	return f.attendants, f.err
}

func TestCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	lister := newFakeLister()
	cache := NewCache(lister, NewMemoryStore(), nil)

	medics, err := cache.Medics(ctx)
	require.NoError(t, err)
	require.Len(t, medics, 1)
	assert.Equal(t, 1, lister.calls[KindMedics])

	// Second read is served from the store.
	medics, err = cache.Medics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m1", medics[0].ID)
	assert.Equal(t, 1, lister.calls[KindMedics])

	// Other kinds fetch independently.
	_, err = cache.Patients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls[KindPatients])
}

func TestCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	lister := newFakeLister()
	cache := NewCache(lister, NewMemoryStore(), nil)

	_, err := cache.Medics(ctx)
	require.NoError(t, err)
	_, err = cache.Patients(ctx)
	require.NoError(t, err)

	cache.Invalidate(ctx, KindMedics)

	_, err = cache.Medics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls[KindMedics], "invalidated kind refetches")

	_, err = cache.Patients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls[KindPatients], "untouched kind stays cached")
}

func TestCacheRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	lister := newFakeLister()
	cache := NewCache(lister, NewRedisStore(client), nil)

	attendants, err := cache.Attendants(ctx)
	require.NoError(t, err)
	require.Len(t, attendants, 1)
	assert.Equal(t, 1, lister.calls[KindAttendants])

	// A second cache instance sharing the same Redis sees the entry.
	other := NewCache(newFakeLister(), NewRedisStore(client), nil)
	attendants, err = other.Attendants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, attendants[0].TicketWindow)

	cache.Invalidate(ctx, KindAttendants)
	assert.False(t, mr.Exists("directory:attendants"))
}

func TestCacheCorruptEntryRefetches(t *testing.T) {
	ctx := context.Background()
	lister := newFakeLister()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, KindPersons, []byte("{not json")))

	cache := NewCache(lister, store, nil)
	persons, err := cache.Persons(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 1)
	assert.Equal(t, 1, lister.calls[KindPersons])
}

func TestLookupHelpers(t *testing.T) {
	medics := []backend.Medic{{ID: "m1"}, {ID: "m2"}}
	assert.Equal(t, "m2", MedicByID(medics, "m2").ID)
	assert.Nil(t, MedicByID(medics, "m9"))
	assert.Nil(t, MedicByID(medics, ""))

	patients := []backend.Patient{{ID: "p1"}}
	assert.NotNil(t, PatientByID(patients, "p1"))
	assert.Nil(t, PatientByID(patients, "p2"))

	attendants := []backend.Attendant{{ID: "a1"}}
	assert.NotNil(t, AttendantByID(attendants, "a1"))
	assert.Nil(t, AttendantByID(nil, "a1"))
}
