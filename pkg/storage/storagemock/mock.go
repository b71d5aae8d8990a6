package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/energywise/energywise/pkg/storage"
	"github.com/energywise/energywise/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) ListResidences(ctx context.Context) ([]types.Residence, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]types.Residence), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) GetResidence(ctx context.Context, id int) (types.Residence, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Residence), args.Error(1)
}

func (m *MockDatabase) PutResidence(ctx context.Context, residence types.Residence) error {
	args := m.Called(ctx, residence)
	return args.Error(0)
}

func (m *MockDatabase) DeleteResidence(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDatabase) ListIntegrationStates(ctx context.Context) ([]types.IntegrationState, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]types.IntegrationState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) PutIntegrationState(ctx context.Context, state types.IntegrationState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockDatabase) GetSettings(ctx context.Context, userID string) (types.Settings, int, error) {
	args := m.Called(ctx, userID)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		return args.Get(0).(types.Settings), args.Int(1), args.Error(2)
	}
	return types.Settings{}, 0, nil
}

func (m *MockDatabase) SetSettings(ctx context.Context, userID string, settings types.Settings, version int) error {
	args := m.Called(ctx, userID, settings, version)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
