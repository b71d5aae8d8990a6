package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energywise/energywise/pkg/types"
)

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func series(consumption []float64, generation []float64) []types.MonthlyDatum {
	out := make([]types.MonthlyDatum, len(consumption))
	for i, c := range consumption {
		out[i] = types.MonthlyDatum{Month: months[i%12], ConsumptionKWH: c}
		if generation != nil {
			out[i].GenerationKWH = types.Float64(generation[i])
		}
	}
	return out
}

func TestComputeMetrics(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		snap := ComputeMetrics(nil)
		assert.Equal(t, types.MetricsSnapshot{ConsumptionTrend: types.TrendNeutral}, snap)
	})

	t.Run("Single", func(t *testing.T) {
		snap := ComputeMetrics(series([]float64{300}, nil))
		assert.Equal(t, 300.0, snap.LastMonthConsumption)
		assert.Equal(t, types.TrendNeutral, snap.ConsumptionTrend)
		assert.Zero(t, snap.ConsumptionDiff)
		assert.Equal(t, 300.0, snap.AvgConsumption)
		assert.Nil(t, snap.LastMonthGeneration)
	})

	t.Run("SampleResidence", func(t *testing.T) {
		consumption := []float64{450, 420, 430, 400, 380, 360, 370, 390, 410, 440, 460, 480}
		generation := []float64{550, 580, 620, 650, 600, 550, 530, 580, 610, 630, 590, 540}
		snap := ComputeMetrics(series(consumption, generation))

		assert.Equal(t, 480.0, snap.LastMonthConsumption)
		require.NotNil(t, snap.LastMonthGeneration)
		assert.Equal(t, 540.0, *snap.LastMonthGeneration)
		assert.Equal(t, types.TrendUp, snap.ConsumptionTrend)
		assert.Equal(t, 20.0, snap.ConsumptionDiff)
		// 4990 kWh over twelve months
		assert.InDelta(t, 4990.0/12, snap.AvgConsumption, 1e-9)
		assert.InDelta(t, 7030.0-4990.0, snap.NetEnergy, 1e-9)
	})

	t.Run("Down", func(t *testing.T) {
		snap := ComputeMetrics(series([]float64{260, 255}, nil))
		assert.Equal(t, types.TrendDown, snap.ConsumptionTrend)
		assert.Equal(t, 5.0, snap.ConsumptionDiff)
	})

	t.Run("Equal", func(t *testing.T) {
		snap := ComputeMetrics(series([]float64{200, 200}, nil))
		assert.Equal(t, types.TrendNeutral, snap.ConsumptionTrend)
		assert.Zero(t, snap.ConsumptionDiff)
	})

	t.Run("NoGeneration", func(t *testing.T) {
		consumption := []float64{250, 230, 240, 220, 210, 200, 215, 225, 235, 245, 255, 260}
		snap := ComputeMetrics(series(consumption, nil))
		var sum float64
		for _, c := range consumption {
			sum += c
		}
		assert.InDelta(t, -sum, snap.NetEnergy, 1e-9)
		assert.InDelta(t, sum/12, snap.AvgConsumption, 1e-9)
		assert.Nil(t, snap.LastMonthGeneration)
	})

	t.Run("ZeroGenerationIsNotAbsent", func(t *testing.T) {
		snap := ComputeMetrics(series([]float64{100}, []float64{0}))
		require.NotNil(t, snap.LastMonthGeneration)
		assert.Zero(t, *snap.LastMonthGeneration)
	})

	t.Run("DoesNotAliasInput", func(t *testing.T) {
		in := series([]float64{100}, []float64{50})
		snap := ComputeMetrics(in)
		*snap.LastMonthGeneration = 1
		assert.Equal(t, 50.0, *in[0].GenerationKWH)
	})
}
