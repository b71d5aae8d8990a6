package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/observability"
	"github.com/energywise/energywise/pkg/storage"
	"github.com/energywise/energywise/pkg/types"
)

// Store serializes actions against the current State and persists whatever
// each action touched before publishing the new state.
type Store struct {
	db      storage.Database
	metrics *observability.Metrics

	mu    sync.Mutex
	state State
}

// New creates a Store backed by db. Call Load before use.
func New(db storage.Database, metrics *observability.Metrics) *Store {
	return &Store{
		db:      db,
		metrics: metrics,
		state:   State{Integrations: map[types.IntegrationID]types.IntegrationState{}},
	}
}

// Configured registers the store flags and loads the state from db once
// flags are parsed.
func Configured(db storage.Database, metrics *observability.Metrics) *Store {
	seed := lflag.Bool("storage-seed", true, "Seed the sample residences when storage has none")

	s := New(db, metrics)
	lflag.Do(func() {
		ctx := context.Background()
		if *seed {
			if err := Seed(ctx, db); err != nil {
				panic(fmt.Sprintf("failed to seed storage: %v", err))
			}
		}
		if err := s.Load(ctx); err != nil {
			panic(fmt.Sprintf("failed to load store: %v", err))
		}
	})
	return s
}

// Seed writes the sample residences to db if it has no residences yet.
func Seed(ctx context.Context, db storage.Database) error {
	existing, err := db.ListResidences(ctx)
	if err != nil {
		return fmt.Errorf("failed to list residences: %w", err)
	}
	if len(existing) > 0 {
		log.Ctx(ctx).InfoContext(ctx, "storage already has residences, not seeding", slog.Int("count", len(existing)))
		return nil
	}
	for _, r := range SampleResidences() {
		if err := db.PutResidence(ctx, r); err != nil {
			return fmt.Errorf("failed to seed residence %d: %w", r.ID, err)
		}
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded sample residences")
	return nil
}

// Load replaces the in-memory state with what's in the database.
func (s *Store) Load(ctx context.Context) error {
	residences, err := s.db.ListResidences(ctx)
	if err != nil {
		return fmt.Errorf("failed to list residences: %w", err)
	}
	integrations, err := s.db.ListIntegrationStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list integrations: %w", err)
	}

	state := State{
		Residences:   residences,
		Integrations: make(map[types.IntegrationID]types.IntegrationState, len(integrations)),
	}
	for _, is := range integrations {
		state.Integrations[is.ID] = is
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	log.Ctx(ctx).DebugContext(
		ctx,
		"loaded store",
		slog.Int("residences", len(residences)),
		slog.Int("integrations", len(integrations)),
	)
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Residence returns a copy of one residence.
func (s *Store) Residence(id int) (types.Residence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.Residence(id)
	if !ok {
		return types.Residence{}, fmt.Errorf("%w: %d", ErrResidenceNotFound, id)
	}
	return r, nil
}

// Dispatch reduces a against the current state, persists the result and
// makes it current. On error the current state is unchanged.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	next, _, err := s.dispatch(ctx, a)
	return next, err
}

func (s *Store) dispatch(ctx context.Context, a Action) (State, change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, c, err := reduce(s.state, a)
	if err == nil {
		err = s.persist(ctx, next, c)
	}
	s.metrics.StoreCommit(a.Name(), err)
	if err != nil {
		return s.state.Clone(), c, err
	}

	s.state = next
	log.Ctx(ctx).DebugContext(ctx, "dispatched action", slog.String("action", a.Name()))
	return next.Clone(), c, nil
}

func (s *Store) persist(ctx context.Context, next State, c change) error {
	switch {
	case c.residenceRemoved:
		err := s.db.DeleteResidence(ctx, c.residenceID)
		// already gone is what we wanted
		if err != nil && !errors.Is(err, storage.ErrResidenceNotFound) {
			return fmt.Errorf("failed to delete residence: %w", err)
		}
	case c.residenceID != 0:
		r, _ := next.Residence(c.residenceID)
		if err := s.db.PutResidence(ctx, r); err != nil {
			return fmt.Errorf("failed to save residence: %w", err)
		}
	case c.integration != "":
		if err := s.db.PutIntegrationState(ctx, next.Integrations[c.integration]); err != nil {
			return fmt.Errorf("failed to save integration: %w", err)
		}
	}
	return nil
}

// AddResidence adds r and returns it with its assigned ID.
func (s *Store) AddResidence(ctx context.Context, r types.Residence) (types.Residence, error) {
	next, c, err := s.dispatch(ctx, AddResidence{Residence: r})
	if err != nil {
		return types.Residence{}, err
	}
	added, _ := next.Residence(c.residenceID)
	return added, nil
}

// UpdateResidence replaces the details of an existing residence.
func (s *Store) UpdateResidence(ctx context.Context, r types.Residence) (types.Residence, error) {
	next, err := s.Dispatch(ctx, UpdateResidence{Residence: r})
	if err != nil {
		return types.Residence{}, err
	}
	updated, _ := next.Residence(r.ID)
	return updated, nil
}

// RemoveResidence deletes a residence.
func (s *Store) RemoveResidence(ctx context.Context, id int) error {
	_, err := s.Dispatch(ctx, RemoveResidence{ID: id})
	return err
}

// RecordReading assigns the reading an ID and prepends it to the residence's
// readings. The returned reading carries the computed usage.
func (s *Store) RecordReading(ctx context.Context, residenceID int, reading types.Reading) (types.Reading, error) {
	reading.ID = uuid.NewString()
	next, err := s.Dispatch(ctx, RecordReading{ResidenceID: residenceID, Reading: reading})
	if err != nil {
		return types.Reading{}, err
	}
	r, _ := next.Residence(residenceID)
	return r.Readings[0], nil
}

// SetSolarSystem installs or removes a residence's solar system.
func (s *Store) SetSolarSystem(ctx context.Context, residenceID int, system *types.SolarSystem) (types.Residence, error) {
	next, err := s.Dispatch(ctx, SetSolarSystem{ResidenceID: residenceID, System: system})
	if err != nil {
		return types.Residence{}, err
	}
	r, _ := next.Residence(residenceID)
	return r, nil
}

// SetIntegrationState stores the state of an integration.
func (s *Store) SetIntegrationState(ctx context.Context, state types.IntegrationState) error {
	_, err := s.Dispatch(ctx, SetIntegrationState{State: state})
	return err
}

// IntegrationState returns the stored state of an integration, defaulting to
// disconnected.
func (s *Store) IntegrationState(id types.IntegrationID) types.IntegrationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	is, ok := s.state.Integrations[id]
	if !ok {
		return types.IntegrationState{ID: id, Status: types.IntegrationDisconnected}
	}
	is.EncryptedCredentials = slices.Clone(is.EncryptedCredentials)
	return is
}
