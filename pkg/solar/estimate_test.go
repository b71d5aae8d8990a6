package solar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energywise/energywise/pkg/types"
)

func sampleInputs() types.ResidenceEnergyProfile {
	return types.ResidenceEnergyProfile{
		PowerKWP:            8.5,
		IrradiationKWHM2Day: 4.5,
		PerformanceRatio:    0.80,
		TariffCostPerKWH:    0.78,
	}
}

func TestEstimate(t *testing.T) {
	p := DefaultProfile()

	t.Run("Sample", func(t *testing.T) {
		f := Estimate(p, sampleInputs())
		assert.InDelta(t, 918.0, f.AvgMonthlyGeneration, 1e-9)
		assert.InDelta(t, 11016.0, f.TotalGeneration, 1e-9)
		assert.InDelta(t, 8592.48, f.AnnualSavings, 1e-6)
		assert.InDelta(t, 11016.0*0.707/1000, f.CO2AvoidedTons, 1e-9)
		require.Len(t, f.MonthlyForecast, 12)
		assert.Equal(t, "Jan", f.MonthlyForecast[0].Month)
		assert.Equal(t, "Dec", f.MonthlyForecast[11].Month)
	})

	t.Run("ForecastSumsToTotal", func(t *testing.T) {
		f := Estimate(p, sampleInputs())
		var sum float64
		for _, fp := range f.MonthlyForecast {
			sum += fp.GenerationKWH
		}
		assert.InDelta(t, f.TotalGeneration, sum, 1e-6)
	})

	t.Run("LinearInPower", func(t *testing.T) {
		in := sampleInputs()
		a := Estimate(p, in)
		in.PowerKWP *= 2
		b := Estimate(p, in)
		assert.InDelta(t, 2*a.AvgMonthlyGeneration, b.AvgMonthlyGeneration, 1e-9)
		assert.InDelta(t, 2*a.TotalGeneration, b.TotalGeneration, 1e-9)
		assert.InDelta(t, 2*a.AnnualSavings, b.AnnualSavings, 1e-9)
	})

	t.Run("Degenerate", func(t *testing.T) {
		in := sampleInputs()
		in.PowerKWP = 0
		assert.Zero(t, Estimate(p, in).TotalGeneration)

		in.PowerKWP = -1
		f := Estimate(p, in)
		assert.Less(t, f.TotalGeneration, 0.0)
		assert.Less(t, f.AnnualSavings, 0.0)
	})

	t.Run("MissingLabels", func(t *testing.T) {
		bare := Profile{DaysPerMonth: 30, EmissionFactor: 0.707, SeasonalWeights: DefaultProfile().SeasonalWeights}
		var f types.YieldForecast
		require.NotPanics(t, func() { f = Estimate(bare, sampleInputs()) })
		require.Len(t, f.MonthlyForecast, 12)
		assert.Equal(t, "Jan", f.MonthlyForecast[0].Month)
		assert.Equal(t, "Dec", f.MonthlyForecast[11].Month)
		assert.InDelta(t, Estimate(p, sampleInputs()).TotalGeneration, f.TotalGeneration, 1e-9)

		partial := bare
		partial.MonthLabels = []string{"Janeiro", "Fevereiro"}
		f = Estimate(partial, sampleInputs())
		assert.Equal(t, "Fevereiro", f.MonthlyForecast[1].Month)
		assert.Equal(t, "Mar", f.MonthlyForecast[2].Month)
	})

	t.Run("CustomProfile", func(t *testing.T) {
		custom := DefaultProfile()
		custom.EmissionFactor = 0.1
		custom.DaysPerMonth = 31
		custom.SeasonalWeights = []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
		f := Estimate(custom, sampleInputs())
		assert.InDelta(t, 8.5*4.5*31*0.8, f.AvgMonthlyGeneration, 1e-9)
		assert.InDelta(t, f.TotalGeneration*0.1/1000, f.CO2AvoidedTons, 1e-12)
		assert.Equal(t, f.TotalGeneration, f.MonthlyForecast[0].GenerationKWH)
		assert.Zero(t, f.MonthlyForecast[6].GenerationKWH)
	})
}

func TestEstimatorForResidence(t *testing.T) {
	e := NewEstimator(DefaultProfile())

	r := types.Residence{
		SolarSystem: &types.SolarSystem{PowerKWP: 8.5},
		Tariff:      types.Tariff{CostPerKWH: 0.78},
	}
	f := e.ForResidence(r)
	assert.InDelta(t, 918.0, f.AvgMonthlyGeneration, 1e-9)

	r.SolarSystem.PerformanceRatio = 0.5
	r.SolarSystem.IrradiationKWHM2Day = 5
	f = e.ForResidence(r)
	assert.InDelta(t, 8.5*5*30*0.5, f.AvgMonthlyGeneration, 1e-9)

	assert.Zero(t, e.ForResidence(types.Residence{}).TotalGeneration)
}

func TestSimulate(t *testing.T) {
	e := NewEstimator(DefaultProfile())
	in := sampleInputs()

	none := e.Simulate(in, Scenario{Orientation: "North"})
	assert.InDelta(t, e.Estimate(in).TotalGeneration, none.TotalGeneration, 1e-9)

	f := e.Simulate(in, DefaultScenario())
	// 25% expansion, polycrystalline, South-West
	assert.InDelta(t, e.Estimate(in).TotalGeneration*1.25*0.95, f.TotalGeneration, 1e-9)
}
