package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/energywise/energywise/pkg/storage"
	"github.com/energywise/energywise/pkg/storage/storagemock"
	"github.com/energywise/energywise/pkg/types"
)

func newSeededStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	ctx := context.Background()
	db := storage.NewMemory()
	require.NoError(t, Seed(ctx, db))
	s := New(db, nil)
	require.NoError(t, s.Load(ctx))
	return s, db
}

func TestStoreLoad(t *testing.T) {
	s, _ := newSeededStore(t)
	snap := s.Snapshot()
	require.Len(t, snap.Residences, 2)
	assert.Equal(t, "Casa Principal", snap.Residences[0].Name)

	// mutating the snapshot doesn't leak into the store
	snap.Residences[0].Name = "changed"
	r, err := s.Residence(1)
	require.NoError(t, err)
	assert.Equal(t, "Casa Principal", r.Name)

	_, err = s.Residence(5)
	assert.ErrorIs(t, err, ErrResidenceNotFound)
}

func TestSeedSkipsExisting(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	require.NoError(t, db.PutResidence(ctx, types.Residence{ID: 7, Name: "Existing"}))
	require.NoError(t, Seed(ctx, db))

	list, err := db.ListResidences(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].ID)
}

func TestStorePersists(t *testing.T) {
	ctx := context.Background()
	s, db := newSeededStore(t)

	added, err := s.AddResidence(ctx, types.Residence{Name: "Sítio", Address: "Estrada 7"})
	require.NoError(t, err)
	assert.Equal(t, 3, added.ID)

	stored, err := db.GetResidence(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Sítio", stored.Name)

	reading, err := s.RecordReading(ctx, 1, types.Reading{Date: "2024-05-20", ReadingKWH: 12331.45})
	require.NoError(t, err)
	assert.NotEmpty(t, reading.ID)
	assert.InDelta(t, 10.0, reading.UsageKWH, 1e-9)

	stored, err = db.GetResidence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, reading.ID, stored.Readings[0].ID)

	updated, err := s.SetSolarSystem(ctx, 2, &types.SolarSystem{PowerKWP: 4})
	require.NoError(t, err)
	assert.True(t, updated.HasSolar)

	added.Name = "Sítio Novo"
	updated, err = s.UpdateResidence(ctx, added)
	require.NoError(t, err)
	assert.Equal(t, "Sítio Novo", updated.Name)

	require.NoError(t, s.RemoveResidence(ctx, 3))
	_, err = db.GetResidence(ctx, 3)
	assert.ErrorIs(t, err, storage.ErrResidenceNotFound)

	require.NoError(t, s.SetIntegrationState(ctx, types.IntegrationState{
		ID:     types.IntegrationFronius,
		Status: types.IntegrationConnected,
	}))
	states, err := db.ListIntegrationStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, types.IntegrationConnected, s.IntegrationState(types.IntegrationFronius).Status)
	assert.Equal(t, types.IntegrationDisconnected, s.IntegrationState(types.IntegrationSMA).Status)
}

func TestStorePersistFailure(t *testing.T) {
	ctx := context.Background()
	db := &storagemock.MockDatabase{}
	db.On("ListResidences", mock.Anything).Return(SampleResidences(), nil)
	db.On("ListIntegrationStates", mock.Anything).Return(nil, nil)
	db.On("PutResidence", mock.Anything, mock.Anything).Return(errors.New("unavailable"))

	s := New(db, nil)
	require.NoError(t, s.Load(ctx))

	_, err := s.RecordReading(ctx, 1, types.Reading{Date: "2024-05-20", ReadingKWH: 13000})
	require.Error(t, err)

	r, err := s.Residence(1)
	require.NoError(t, err)
	assert.Len(t, r.Readings, 5, "failed writes don't change state")
	db.AssertExpectations(t)
}

func TestStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	db := &storagemock.MockDatabase{}
	db.On("ListResidences", mock.Anything).Return(SampleResidences(), nil)
	db.On("ListIntegrationStates", mock.Anything).Return(nil, nil)

	s := New(db, nil)
	require.NoError(t, s.Load(ctx))

	_, err := s.RecordReading(ctx, 1, types.Reading{Date: "2024-05-20", ReadingKWH: 1})
	assert.ErrorIs(t, err, ErrReadingNotIncreasing)
	// the database is never touched
	db.AssertNotCalled(t, "PutResidence", mock.Anything, mock.Anything)
}

func TestStoreLoadError(t *testing.T) {
	db := &storagemock.MockDatabase{}
	db.On("ListResidences", mock.Anything).Return(nil, errors.New("down"))
	s := New(db, nil)
	assert.ErrorContains(t, s.Load(context.Background()), "down")
}
