package solar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/types"
)

// Estimate computes the yield forecast for in using the profile's constants.
// Inputs aren't validated: zero or negative values produce zero or negative
// forecasts.
func Estimate(p Profile, in types.ResidenceEnergyProfile) types.YieldForecast {
	avgMonthly := in.PowerKWP * in.IrradiationKWHM2Day * p.DaysPerMonth * in.PerformanceRatio
	total := avgMonthly * 12

	f := types.YieldForecast{
		AvgMonthlyGeneration: avgMonthly,
		TotalGeneration:      total,
		AnnualSavings:        total * in.TariffCostPerKWH,
		CO2AvoidedTons:       total * p.EmissionFactor / 1000,
		MonthlyForecast:      make([]types.ForecastPoint, len(p.SeasonalWeights)),
	}
	for i, w := range p.SeasonalWeights {
		f.MonthlyForecast[i] = types.ForecastPoint{
			Month:         p.monthLabel(i),
			GenerationKWH: total * w,
		}
	}
	return f
}

// monthLabel falls back to the calendar month's short name when the profile
// has fewer labels than weights.
func (p Profile) monthLabel(i int) string {
	if i < len(p.MonthLabels) && p.MonthLabels[i] != "" {
		return p.MonthLabels[i]
	}
	return time.Month(i%12 + 1).String()[:3]
}

// Estimator binds a Profile so callers don't have to carry it around.
type Estimator struct {
	profile Profile
}

// NewEstimator returns an Estimator for p.
func NewEstimator(p Profile) *Estimator {
	return &Estimator{profile: p}
}

// Configured registers the solar flags and loads the profile once flags are
// parsed.
func Configured() *Estimator {
	path := lflag.String("solar-profile", "", "Path to a YAML solar profile (emission factor, seasonal weights)")

	e := &Estimator{}
	lflag.Do(func() {
		p, err := LoadProfile(*path)
		if err != nil {
			panic(fmt.Sprintf("failed to load solar profile: %v", err))
		}
		e.profile = p
		ctx := context.Background()
		log.Ctx(ctx).DebugContext(
			ctx,
			"loaded solar profile",
			slog.String("path", *path),
			slog.Float64("emissionFactor", p.EmissionFactor),
		)
	})
	return e
}

// Profile returns the bound profile.
func (e *Estimator) Profile() Profile {
	return e.profile
}

// Estimate runs Estimate with the bound profile.
func (e *Estimator) Estimate(in types.ResidenceEnergyProfile) types.YieldForecast {
	return Estimate(e.profile, in)
}

// Simulate estimates the yield of in after applying the scenario's
// adjustments to its installed power.
func (e *Estimator) Simulate(in types.ResidenceEnergyProfile, s Scenario) types.YieldForecast {
	in.PowerKWP = s.EffectivePower(in.PowerKWP)
	return Estimate(e.profile, in)
}

// ForResidence estimates the yield of a residence's installed system.
func (e *Estimator) ForResidence(r types.Residence) types.YieldForecast {
	return Estimate(e.profile, e.profile.InputsFor(r))
}
