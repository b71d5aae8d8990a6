// Package integration connects residences to third-party inverter monitoring
// portals. Each provider accepts its own variant of types.Credentials.
package integration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/types"
)

var (
	ErrUnknownProvider    = errors.New("unknown integration provider")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("provider rejected credentials")
	ErrNotConnected       = errors.New("integration is not connected")
)

const (
	defaultDataInterval = 15 * time.Minute
	// a connection whose next update is overdue by this much is expired
	expiryGrace = 24 * time.Hour
)

// Provider is the capability set shared by every integration. Providers don't
// keep connection state themselves; they derive the next state from the
// previous one.
type Provider interface {
	// Info describes the provider and the credential fields it needs.
	Info() types.IntegrationInfo

	// SubmitCredentials validates creds and returns the connected state. On
	// failure the returned state has status failed along with the error.
	SubmitCredentials(ctx context.Context, creds types.Credentials, now time.Time) (types.IntegrationState, error)

	// Disconnect returns the disconnected state.
	Disconnect(ctx context.Context, prev types.IntegrationState) types.IntegrationState

	// Status reports the state as of now, expiring stale connections.
	Status(prev types.IntegrationState, now time.Time) types.IntegrationState
}

// Map manages the integration providers.
type Map struct {
	mu        sync.Mutex
	providers map[types.IntegrationID]Provider
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{
		providers: make(map[types.IntegrationID]Provider),
	}
}

// NewDefaultMap returns a Map with every built-in provider. Credentials are
// only checked for completeness.
func NewDefaultMap() *Map {
	m := NewMap()
	for _, p := range []*provider{newHuawei(), newFronius(), newSMA(), newSolarEdge()} {
		m.SetProvider(p.info.ID, p)
	}
	return m
}

// Configured registers the integration flags and every provider.
func Configured() *Map {
	verifyRemote := lflag.Bool("integration-verify-remote", false, "Verify submitted credentials against the provider's API")

	m := NewDefaultMap()
	lflag.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, p := range m.providers {
			if bp, ok := p.(*provider); ok {
				bp.verifyRemote = *verifyRemote
			}
		}
	})
	return m
}

// Provider returns the provider with the given id.
func (m *Map) Provider(id types.IntegrationID) (Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.providers[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
}

// List returns the info of every provider ordered by id.
func (m *Map) List() []types.IntegrationInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]types.IntegrationInfo, 0, len(m.providers))
	for _, p := range m.providers {
		infos = append(infos, p.Info())
	}
	slices.SortFunc(infos, func(a, b types.IntegrationInfo) int {
		return compareIDs(a.ID, b.ID)
	})
	return infos
}

// display order of the built-in providers
var providerOrder = []types.IntegrationID{
	types.IntegrationHuawei,
	types.IntegrationFronius,
	types.IntegrationSMA,
	types.IntegrationSolarEdge,
}

func compareIDs(a, b types.IntegrationID) int {
	ai, bi := slices.Index(providerOrder, a), slices.Index(providerOrder, b)
	if ai < 0 {
		ai = len(providerOrder)
	}
	if bi < 0 {
		bi = len(providerOrder)
	}
	if ai != bi {
		return ai - bi
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SetProvider sets the provider for the given id. This is primarily used for testing.
func (m *Map) SetProvider(id types.IntegrationID, p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[id] = p
}
