package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energywise/energywise/pkg/types"
)

func TestMapList(t *testing.T) {
	m := NewMap()
	for _, p := range []*provider{newSolarEdge(), newSMA(), newHuawei(), newFronius()} {
		m.SetProvider(p.info.ID, p)
	}

	var ids []types.IntegrationID
	for _, info := range m.List() {
		ids = append(ids, info.ID)
		assert.NotEmpty(t, info.Credentials, "%s has no credential fields", info.ID)
	}
	assert.Equal(t, []types.IntegrationID{
		types.IntegrationHuawei,
		types.IntegrationFronius,
		types.IntegrationSMA,
		types.IntegrationSolarEdge,
	}, ids)

	_, err := m.Provider("enphase")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", defaultDataInterval, false},
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"15 min", 15 * time.Minute, false},
		{"30min", 30 * time.Minute, false},
		{"0 min", 0, true},
		{"-5m", 0, true},
		{"often", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInterval(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitCredentialsValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("wrong variant", func(t *testing.T) {
		state, err := newFronius().SubmitCredentials(ctx, types.Credentials{
			SMA: &types.SMACredentials{SystemID: "1", APIKey: "k"},
		}, now)
		assert.ErrorIs(t, err, ErrMissingCredentials)
		assert.Equal(t, types.IntegrationFailed, state.Status)
		assert.NotEmpty(t, state.LastError)
	})

	t.Run("blank field", func(t *testing.T) {
		_, err := newHuawei().SubmitCredentials(ctx, types.Credentials{
			Huawei: &types.HuaweiCredentials{Username: "u", Password: "p", Domain: " ", StationCode: "NE=1"},
		}, now)
		assert.ErrorIs(t, err, ErrMissingCredentials)
		assert.ErrorContains(t, err, "domain")
	})

	t.Run("bad interval", func(t *testing.T) {
		_, err := newSMA().SubmitCredentials(ctx, types.Credentials{
			SMA:          &types.SMACredentials{SystemID: "1", APIKey: "k"},
			DataInterval: "sometimes",
		}, now)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("connected", func(t *testing.T) {
		state, err := newSolarEdge().SubmitCredentials(ctx, types.Credentials{
			SolarEdge:    &types.SolarEdgeCredentials{SiteID: "42", APIKey: "k"},
			DataInterval: "5 min",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, types.IntegrationConnected, state.Status)
		assert.Equal(t, types.IntegrationSolarEdge, state.ID)
		assert.NotEmpty(t, state.ConnectionID)
		assert.Equal(t, now, state.LastReading)
		assert.Equal(t, now.Add(5*time.Minute), state.NextUpdate)
		assert.Empty(t, state.LastError)
	})
}

func TestStatus(t *testing.T) {
	p := newSMA()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	state := p.Status(types.IntegrationState{}, now)
	assert.Equal(t, types.IntegrationDisconnected, state.Status)
	assert.Equal(t, types.IntegrationSMA, state.ID)

	connected := types.IntegrationState{
		ID:         types.IntegrationSMA,
		Status:     types.IntegrationConnected,
		NextUpdate: now.Add(-time.Hour),
	}
	assert.Equal(t, types.IntegrationConnected, p.Status(connected, now).Status)
	assert.Equal(t, types.IntegrationExpired, p.Status(connected, now.Add(2*expiryGrace)).Status)

	disconnected := p.Disconnect(context.Background(), types.IntegrationState{
		ID:          types.IntegrationSMA,
		Status:      types.IntegrationConnected,
		LastReading: now,
	})
	assert.Equal(t, types.IntegrationDisconnected, disconnected.Status)
	assert.Equal(t, now, disconnected.LastReading)
	assert.Empty(t, disconnected.ConnectionID)
}

func TestVerifyRemote(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("solaredge", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("api_key") != "good" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			assert.Equal(t, "/site/42/details", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{"details": map[string]any{"id": 42}})
		}))
		defer srv.Close()

		p := newSolarEdge()
		p.verifyRemote = true

		_, err := p.SubmitCredentials(ctx, types.Credentials{
			SolarEdge: &types.SolarEdgeCredentials{SiteID: "42", APIKey: "good"},
			APIURL:    srv.URL,
		}, now)
		require.NoError(t, err)

		state, err := p.SubmitCredentials(ctx, types.Credentials{
			SolarEdge: &types.SolarEdgeCredentials{SiteID: "42", APIKey: "bad"},
			APIURL:    srv.URL,
		}, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, types.IntegrationFailed, state.Status)
	})

	t.Run("fronius", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/pvsystems/plant-1", r.URL.Path)
			if r.Header.Get("AccessKeyValue") != "good" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"pvSystemId":"plant-1"}`))
		}))
		defer srv.Close()

		p := newFronius()
		p.verifyRemote = true
		_, err := p.SubmitCredentials(ctx, types.Credentials{
			Fronius: &types.FroniusCredentials{APIKey: "good", PlantID: "plant-1"},
			APIURL:  srv.URL,
		}, now)
		require.NoError(t, err)

		_, err = p.SubmitCredentials(ctx, types.Credentials{
			Fronius: &types.FroniusCredentials{APIKey: "bad", PlantID: "plant-1"},
			APIURL:  srv.URL,
		}, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("sma", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/plants/7", r.URL.Path)
			if r.Header.Get("Authorization") != "Bearer good" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"plantId":"7"}`))
		}))
		defer srv.Close()

		p := newSMA()
		p.verifyRemote = true
		_, err := p.SubmitCredentials(ctx, types.Credentials{
			SMA:    &types.SMACredentials{SystemID: "7", APIKey: "good"},
			APIURL: srv.URL,
		}, now)
		require.NoError(t, err)
	})

	t.Run("huawei", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/thirdData/login", r.URL.Path)
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["systemCode"] == "good" {
				w.Write([]byte(`{"success":true}`))
				return
			}
			w.Write([]byte(`{"success":false,"failCode":20001}`))
		}))
		defer srv.Close()

		p := newHuawei()
		p.verifyRemote = true
		creds := types.Credentials{
			Huawei: &types.HuaweiCredentials{Username: "u", Password: "good", Domain: "eu5.fusionsolar.huawei.com", StationCode: "NE=1"},
			APIURL: srv.URL,
		}
		_, err := p.SubmitCredentials(ctx, creds, now)
		require.NoError(t, err)

		creds.Huawei.Password = "bad"
		_, err = p.SubmitCredentials(ctx, creds, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.ErrorContains(t, err, "20001")
	})
}
