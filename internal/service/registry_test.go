package service

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/boardroom/internal/db"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInitializeIsIdempotent(t *testing.T) {
	store := newMemStore()
	reg := NewRegistry(store, discardLogger())
	ctx := context.Background()

	require.NoError(t, reg.Initialize(ctx))
	require.NoError(t, reg.Initialize(ctx))

	personas, err := reg.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, personas, 6)

	roles := make([]models.Role, 0, len(personas))
	for _, p := range personas {
		roles = append(roles, p.Role)
		assert.Equal(t, p.Role.ID(), p.ID)
		assert.Equal(t, models.PersonaActive, p.Status)
	}
	assert.Equal(t, models.AllRoles(), roles)
	assert.Equal(t, models.TierHigh, personas[0].ModelTier)
}

func TestRegistryInitializeSkipsWhenAnyPersonaExists(t *testing.T) {
	store := newMemStore()
	store.personas["cfo"] = models.Persona{ID: "cfo", Role: models.RoleCFO, Status: models.PersonaOnLeave}
	reg := NewRegistry(store, discardLogger())

	require.NoError(t, reg.Initialize(context.Background()))
	assert.Len(t, store.personas, 1)
	assert.Equal(t, models.PersonaOnLeave, store.personas["cfo"].Status)
}

// racingStore hides personas from the existence check, as if another
// process seeded them between the check and the insert.
type racingStore struct {
	*memStore
	createErr error
}

func (s *racingStore) ListPersonas(ctx context.Context, activeOnly bool) ([]models.Persona, error) {
	return nil, nil
}

func (s *racingStore) CreatePersona(ctx context.Context, p models.Persona) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.memStore.CreatePersona(ctx, p)
}

func TestRegistryInitializeToleratesConcurrentSeeding(t *testing.T) {
	store := &racingStore{memStore: seeded()}
	reg := NewRegistry(store, discardLogger())

	require.NoError(t, reg.Initialize(context.Background()))
	assert.Len(t, store.personas, 6)
}

func TestRegistryInitializeReportsStoreErrors(t *testing.T) {
	store := &racingStore{memStore: newMemStore(), createErr: errors.New("connection reset")}
	reg := NewRegistry(store, discardLogger())

	err := reg.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotErrorIs(t, err, db.ErrAlreadyExists)
}

func TestRegistryListActiveOnly(t *testing.T) {
	store := seeded()
	reg := NewRegistry(store, discardLogger())
	ctx := context.Background()

	require.NoError(t, reg.SetStatus(ctx, models.RoleCMO, models.PersonaInactive))
	require.NoError(t, reg.SetStatus(ctx, models.RoleCEO, models.PersonaOnLeave))

	active, err := reg.List(ctx, true)
	require.NoError(t, err)
	roles := make([]models.Role, 0, len(active))
	for _, p := range active {
		roles = append(roles, p.Role)
	}
	assert.Equal(t, []models.Role{models.RoleCFO, models.RoleCLO, models.RoleCOO, models.RoleCTO}, roles)

	all, err := reg.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestRegistrySetStatusValidation(t *testing.T) {
	reg := NewRegistry(seeded(), discardLogger())
	ctx := context.Background()

	err := reg.SetStatus(ctx, models.Role("CPO"), models.PersonaActive)
	assert.ErrorIs(t, err, models.ErrUnknownRole)

	err = reg.SetStatus(ctx, models.RoleCFO, models.PersonaStatus("retired"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = NewRegistry(newMemStore(), discardLogger()).SetStatus(ctx, models.RoleCFO, models.PersonaActive)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
