package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/energywise/energywise/pkg/types"
)

type settingsEntry struct {
	settings types.Settings
	version  int
}

// Memory is a process-local Database. Everything is lost on restart.
type Memory struct {
	mu           sync.Mutex
	residences   map[int]types.Residence
	integrations map[types.IntegrationID]types.IntegrationState
	settings     map[string]settingsEntry
}

var _ Database = (*Memory)(nil)

// NewMemory returns an empty in-memory Database.
func NewMemory() *Memory {
	return &Memory{
		residences:   make(map[int]types.Residence),
		integrations: make(map[types.IntegrationID]types.IntegrationState),
		settings:     make(map[string]settingsEntry),
	}
}

func (m *Memory) ListResidences(ctx context.Context) ([]types.Residence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := slices.Sorted(maps.Keys(m.residences))
	out := make([]types.Residence, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.residences[id].Clone())
	}
	return out, nil
}

func (m *Memory) GetResidence(ctx context.Context, id int) (types.Residence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.residences[id]
	if !ok {
		return types.Residence{}, fmt.Errorf("%w: %d", ErrResidenceNotFound, id)
	}
	return r.Clone(), nil
}

func (m *Memory) PutResidence(ctx context.Context, residence types.Residence) error {
	if residence.ID <= 0 {
		return fmt.Errorf("invalid residence id: %d", residence.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.residences[residence.ID] = residence.Clone()
	return nil
}

func (m *Memory) DeleteResidence(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.residences[id]; !ok {
		return fmt.Errorf("%w: %d", ErrResidenceNotFound, id)
	}
	delete(m.residences, id)
	return nil
}

func (m *Memory) ListIntegrationStates(ctx context.Context) ([]types.IntegrationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := slices.Sorted(maps.Keys(m.integrations))
	out := make([]types.IntegrationState, 0, len(ids))
	for _, id := range ids {
		s := m.integrations[id]
		s.EncryptedCredentials = slices.Clone(s.EncryptedCredentials)
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) PutIntegrationState(ctx context.Context, state types.IntegrationState) error {
	if state.ID == "" {
		return fmt.Errorf("integration id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	state.EncryptedCredentials = slices.Clone(state.EncryptedCredentials)
	m.integrations[state.ID] = state
	return nil
}

func (m *Memory) GetSettings(ctx context.Context, userID string) (types.Settings, int, error) {
	if userID == "" {
		return types.Settings{}, 0, fmt.Errorf("userID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.settings[userID]
	return e.settings, e.version, nil
}

func (m *Memory) SetSettings(ctx context.Context, userID string, settings types.Settings, version int) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[userID] = settingsEntry{settings: settings, version: version}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
