package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/types"
)

var (
	ErrResidenceNotFound = errors.New("residence not found")
)

// Database defines the interface for persisting residences, integration state
// and user settings.
type Database interface {
	// Residences
	ListResidences(ctx context.Context) ([]types.Residence, error)
	GetResidence(ctx context.Context, id int) (types.Residence, error)
	PutResidence(ctx context.Context, residence types.Residence) error
	DeleteResidence(ctx context.Context, id int) error

	// Integrations
	ListIntegrationStates(ctx context.Context) ([]types.IntegrationState, error)
	PutIntegrationState(ctx context.Context, state types.IntegrationState) error

	// Settings
	GetSettings(ctx context.Context, userID string) (types.Settings, int, error)
	SetSettings(ctx context.Context, userID string, settings types.Settings, version int) error

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "memory", "Storage provider to use (available: memory, firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "memory":
			p.Database = NewMemory()
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
