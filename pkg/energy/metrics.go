// Package energy aggregates a residence's monthly consumption and generation
// series into dashboard metrics.
package energy

import (
	"math"

	"github.com/energywise/energywise/pkg/types"
)

// ComputeMetrics reduces an ordered monthly series to a MetricsSnapshot. An
// empty series yields a zero snapshot with a neutral trend.
func ComputeMetrics(series []types.MonthlyDatum) types.MetricsSnapshot {
	snap := types.MetricsSnapshot{ConsumptionTrend: types.TrendNeutral}
	if len(series) == 0 {
		return snap
	}

	last := series[len(series)-1]
	snap.LastMonthConsumption = last.ConsumptionKWH
	if last.GenerationKWH != nil {
		g := *last.GenerationKWH
		snap.LastMonthGeneration = &g
	}

	if len(series) > 1 {
		prev := series[len(series)-2].ConsumptionKWH
		switch {
		case last.ConsumptionKWH > prev:
			snap.ConsumptionTrend = types.TrendUp
		case last.ConsumptionKWH < prev:
			snap.ConsumptionTrend = types.TrendDown
		}
		snap.ConsumptionDiff = math.Abs(last.ConsumptionKWH - prev)
	}

	var consumption, generation float64
	for _, d := range series {
		consumption += d.ConsumptionKWH
		if d.GenerationKWH != nil {
			generation += *d.GenerationKWH
		}
	}
	snap.AvgConsumption = consumption / float64(len(series))
	snap.NetEnergy = generation - consumption

	return snap
}
