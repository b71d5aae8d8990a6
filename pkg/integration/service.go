package integration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/observability"
	"github.com/energywise/energywise/pkg/types"
)

// StateStore persists integration state.
type StateStore interface {
	IntegrationState(id types.IntegrationID) types.IntegrationState
	SetIntegrationState(ctx context.Context, state types.IntegrationState) error
}

// Service runs provider operations and persists their outcome.
type Service struct {
	providers *Map
	store     StateStore
	sealer    *Sealer
	metrics   *observability.Metrics
	now       func() time.Time
}

// Status pairs a provider's info with its current state.
type Status struct {
	types.IntegrationInfo
	State types.IntegrationState `json:"state"`
}

// NewService returns a Service.
func NewService(providers *Map, store StateStore, sealer *Sealer, metrics *observability.Metrics) *Service {
	return &Service{
		providers: providers,
		store:     store,
		sealer:    sealer,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ConfiguredService registers the credential key flag.
func ConfiguredService(providers *Map, store StateStore, metrics *observability.Metrics) *Service {
	encryptionKey := lflag.RequiredString("credentials-encryption-key", "32 character key for encrypting integration credentials")

	s := NewService(providers, store, nil, metrics)
	lflag.Do(func() {
		sealer, err := NewSealer(*encryptionKey)
		if err != nil {
			panic(fmt.Sprintf("credentials-encryption-key: %v", err))
		}
		s.sealer = sealer
	})
	return s
}

// List returns every provider with its current state.
func (s *Service) List(ctx context.Context) ([]Status, error) {
	infos := s.providers.List()
	out := make([]Status, 0, len(infos))
	for _, info := range infos {
		st, err := s.Status(ctx, info.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Status reports the current state of one provider. Connections found to be
// expired are persisted as such.
func (s *Service) Status(ctx context.Context, id types.IntegrationID) (Status, error) {
	p, err := s.providers.Provider(id)
	if err != nil {
		return Status{}, err
	}
	prev := s.store.IntegrationState(id)
	state := p.Status(prev, s.now())
	if state.Status != prev.Status {
		if err := s.store.SetIntegrationState(ctx, state); err != nil {
			return Status{}, fmt.Errorf("failed to save integration status: %w", err)
		}
		log.Ctx(ctx).InfoContext(
			ctx,
			"integration status changed",
			slog.String("integration", string(id)),
			slog.String("status", string(state.Status)),
		)
	}
	s.metrics.SetIntegrationConnected(string(id), state.Status == types.IntegrationConnected)
	return Status{IntegrationInfo: p.Info(), State: state}, nil
}

// Connect submits credentials to a provider. The resulting state is saved
// whether or not the provider accepted them, except that a connected provider
// keeps its connection and stored credentials when new ones are rejected.
func (s *Service) Connect(ctx context.Context, id types.IntegrationID, creds types.Credentials) (Status, error) {
	p, err := s.providers.Provider(id)
	if err != nil {
		return Status{}, err
	}

	prev := s.store.IntegrationState(id)
	state, connectErr := p.SubmitCredentials(ctx, creds, s.now())
	switch {
	case connectErr == nil:
		sealed, err := s.sealer.Seal(ctx, creds)
		if err != nil {
			return Status{}, err
		}
		state.EncryptedCredentials = sealed
	case prev.Status == types.IntegrationConnected:
		// rejected new credentials leave the live connection in place
		state = prev
		state.LastError = connectErr.Error()
	}
	if err := s.store.SetIntegrationState(ctx, state); err != nil {
		return Status{}, fmt.Errorf("failed to save integration: %w", err)
	}
	s.metrics.SetIntegrationConnected(string(id), state.Status == types.IntegrationConnected)
	if connectErr != nil {
		return Status{IntegrationInfo: p.Info(), State: state}, connectErr
	}
	return Status{IntegrationInfo: p.Info(), State: state}, nil
}

// Disconnect drops a provider's connection and credentials.
func (s *Service) Disconnect(ctx context.Context, id types.IntegrationID) (Status, error) {
	p, err := s.providers.Provider(id)
	if err != nil {
		return Status{}, err
	}
	state := p.Disconnect(ctx, s.store.IntegrationState(id))
	if err := s.store.SetIntegrationState(ctx, state); err != nil {
		return Status{}, fmt.Errorf("failed to save integration: %w", err)
	}
	s.metrics.SetIntegrationConnected(string(id), false)
	return Status{IntegrationInfo: p.Info(), State: state}, nil
}

// Refresh re-submits the stored credentials of a connected provider, moving
// its next update forward.
func (s *Service) Refresh(ctx context.Context, id types.IntegrationID) (Status, error) {
	if _, err := s.providers.Provider(id); err != nil {
		return Status{}, err
	}
	prev := s.store.IntegrationState(id)
	if len(prev.EncryptedCredentials) == 0 {
		return Status{}, fmt.Errorf("%w: %s", ErrNotConnected, id)
	}
	creds, err := s.sealer.Open(ctx, prev.EncryptedCredentials)
	if err != nil {
		return Status{}, err
	}
	return s.Connect(ctx, id, creds)
}
