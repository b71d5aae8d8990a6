package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energywise/energywise/pkg/integration"
	"github.com/energywise/energywise/pkg/solar"
	"github.com/energywise/energywise/pkg/types"
)

func TestReports(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/residences/1/reports?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[reportsResponse](t, w)
	require.Len(t, resp.Days, 7)
	assert.Equal(t, "2024-12-20", resp.Days[0].Date)
	assert.Equal(t, "2024-12-14", resp.Days[6].Date)
	assert.Greater(t, resp.Totals.ConsumptionKWH, 0.0)
	assert.Greater(t, resp.Totals.GenerationKWH, 0.0)
	assert.InDelta(t, resp.Totals.ConsumptionKWH/7, resp.Average.ConsumptionKWH, 0.01)

	// same residence and day always yields the same report
	again := decode[reportsResponse](t, env.do(t, http.MethodGet, "/api/residences/1/reports?days=7", nil))
	assert.Equal(t, resp.Days, again.Days)

	w = env.do(t, http.MethodGet, "/api/residences/1/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[reportsResponse](t, w).Days, 30)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/residences/1/reports?days=10", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/residences/1/reports?days=week", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/residences/7/reports", nil).Code)

	t.Run("csv", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/residences/2/reports?days=7&format=csv", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "residence-2-7d.csv")

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 8)
		assert.Equal(t, "date,consumption_kwh,generation_kwh,net_kwh,cost", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "2024-12-20,"))
	})
}

func TestSimulation(t *testing.T) {
	env := newTestEnv(t)

	t.Run("profile", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/simulation", map[string]any{
			"profile": types.ResidenceEnergyProfile{
				PowerKWP:            8.5,
				IrradiationKWHM2Day: 4.5,
				PerformanceRatio:    0.8,
				TariffCostPerKWH:    0.78,
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[simulationResponse](t, w)
		assert.InDelta(t, 918.0, resp.AvgMonthlyGeneration, 1e-9)
		assert.InDelta(t, 11016.0, resp.TotalGeneration, 1e-9)
		assert.InDelta(t, 8592.48, resp.AnnualSavings, 1e-6)
		assert.Nil(t, resp.Scenario)
	})

	t.Run("residence scenario", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/simulation", simulationRequest{
			ResidenceID: 1,
			Scenario:    &solar.Scenario{ExpansionPercent: 100, PanelType: solar.PanelPolycrystalline, Orientation: "North"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[simulationResponse](t, w)
		assert.InDelta(t, 17.0, resp.Inputs.PowerKWP, 1e-9)
		assert.InDelta(t, 1836.0, resp.AvgMonthlyGeneration, 1e-9)
		assert.Equal(t, 0.78, resp.Inputs.TariffCostPerKWH)
	})

	t.Run("errors", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/simulation", map[string]any{}).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/simulation", simulationRequest{ResidenceID: 5}).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/simulation", "x").Code)
	})
}

func TestTips(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/tips?category=All&difficulty=Easy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]savingTipResponse](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, "7% over typical", list[0].Performance)

	w = env.do(t, http.MethodGet, "/api/tips", nil)
	assert.Len(t, decode[[]savingTipResponse](t, w), 6)

	// without an api key the fallback tips are served
	w = env.do(t, http.MethodGet, "/api/residences/1/tips", nil)
	require.Equal(t, http.StatusOK, w.Code)
	personalized := decode[[]types.Tip](t, w)
	require.Len(t, personalized, 3)
	assert.Equal(t, "Reduce Phantom Load", personalized[0].Title)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/residences/3/tips", nil).Code)
}

func TestTariffs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/tariffs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]types.TariffInfo](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, types.TariffModalityConventional, list[0].Modality)
	assert.Equal(t, types.TariffModalityWhite, list[1].Modality)
}

func TestIntegrations(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/integrations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]integration.Status](t, w)
	require.Len(t, list, 4)
	assert.Equal(t, types.IntegrationHuawei, list[0].ID)
	for _, st := range list {
		assert.Equal(t, types.IntegrationDisconnected, st.State.Status)
	}

	w = env.do(t, http.MethodPost, "/api/integrations/solaredge/connect", types.Credentials{
		SolarEdge:    &types.SolarEdgeCredentials{SiteID: "42", APIKey: "secret"},
		DataInterval: "15 min",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decode[integration.Status](t, w)
	assert.Equal(t, types.IntegrationConnected, st.State.Status)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.NotEmpty(t, env.store.IntegrationState(types.IntegrationSolarEdge).EncryptedCredentials)

	w = env.do(t, http.MethodGet, "/api/integrations/solaredge/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.IntegrationConnected, decode[integration.Status](t, w).State.Status)

	w = env.do(t, http.MethodPost, "/api/integrations/solaredge/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.IntegrationConnected, decode[integration.Status](t, w).State.Status)

	w = env.do(t, http.MethodPost, "/api/integrations/fronius/connect", types.Credentials{
		Fronius: &types.FroniusCredentials{APIKey: "k"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "plantId")
	assert.Equal(t, types.IntegrationFailed, env.store.IntegrationState(types.IntegrationFronius).Status)

	w = env.do(t, http.MethodPost, "/api/integrations/sma/connect", types.Credentials{
		SMA:          &types.SMACredentials{SystemID: "1", APIKey: "k"},
		DataInterval: "whenever",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/integrations/solaredge/disconnect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.IntegrationDisconnected, decode[integration.Status](t, w).State.Status)
	assert.Empty(t, env.store.IntegrationState(types.IntegrationSolarEdge).EncryptedCredentials)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/integrations/solaredge/refresh", nil).Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/integrations/enphase/status", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/integrations/enphase/disconnect", nil).Code)
}
