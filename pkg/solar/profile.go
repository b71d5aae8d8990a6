// Package solar estimates photovoltaic yield for a residence.
package solar

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/energywise/energywise/pkg/types"
)

// Profile holds the regional constants of the yield model. None of them are
// physical law; they're defaults that can be overridden per deployment.
type Profile struct {
	// DaysPerMonth converts daily yield to monthly yield.
	DaysPerMonth float64 `yaml:"daysPerMonth" json:"daysPerMonth"`
	// EmissionFactor is the grid emission intensity in kg CO2 per kWh.
	EmissionFactor float64 `yaml:"emissionFactor" json:"emissionFactor"`
	// SeasonalWeights distribute the annual total over the calendar months,
	// January first. They must sum to 1.
	SeasonalWeights []float64 `yaml:"seasonalWeights" json:"seasonalWeights"`
	MonthLabels     []string  `yaml:"monthLabels" json:"monthLabels"`

	// Used when a residence doesn't record its own site parameters.
	DefaultIrradiation      float64 `yaml:"defaultIrradiation" json:"defaultIrradiation"`
	DefaultPerformanceRatio float64 `yaml:"defaultPerformanceRatio" json:"defaultPerformanceRatio"`
}

// dashboardWeights is the seasonal table the dashboard has always shown, in
// calendar order. It sums to 1.02 so DefaultProfile normalizes it.
var dashboardWeights = []float64{0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.10, 0.11, 0.12, 0.11, 0.10, 0.09}

// DefaultProfile returns the built-in profile.
func DefaultProfile() Profile {
	return Profile{
		DaysPerMonth:            30,
		EmissionFactor:          0.707,
		SeasonalWeights:         normalize(dashboardWeights),
		MonthLabels:             []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		DefaultIrradiation:      4.5,
		DefaultPerformanceRatio: 0.80,
	}
}

func normalize(weights []float64) []float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out
}

// Validate checks that the profile can be used by Estimate.
func (p Profile) Validate() error {
	if p.DaysPerMonth <= 0 {
		return fmt.Errorf("daysPerMonth must be positive: %v", p.DaysPerMonth)
	}
	if p.EmissionFactor < 0 {
		return fmt.Errorf("emissionFactor must not be negative: %v", p.EmissionFactor)
	}
	if len(p.SeasonalWeights) != 12 {
		return fmt.Errorf("seasonalWeights needs 12 values, got %d", len(p.SeasonalWeights))
	}
	if len(p.MonthLabels) != 12 {
		return fmt.Errorf("monthLabels needs 12 values, got %d", len(p.MonthLabels))
	}
	var sum float64
	for i, w := range p.SeasonalWeights {
		if w < 0 {
			return fmt.Errorf("seasonal weight %d is negative: %v", i, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("seasonalWeights must sum to 1, got %v", sum)
	}
	if p.DefaultPerformanceRatio < 0 || p.DefaultPerformanceRatio > 1 {
		return fmt.Errorf("defaultPerformanceRatio must be within [0, 1]: %v", p.DefaultPerformanceRatio)
	}
	return nil
}

// LoadProfile reads a YAML profile from path. Fields missing from the file
// keep their default value and a missing file returns DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	} else if err != nil {
		return p, fmt.Errorf("failed to read solar profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("failed to parse solar profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid solar profile %s: %w", path, err)
	}
	return p, nil
}

// InputsFor builds the estimator inputs for a residence, falling back to the
// profile's site defaults. A residence without a solar system has zero power.
func (p Profile) InputsFor(r types.Residence) types.ResidenceEnergyProfile {
	in := types.ResidenceEnergyProfile{
		IrradiationKWHM2Day: p.DefaultIrradiation,
		PerformanceRatio:    p.DefaultPerformanceRatio,
		TariffCostPerKWH:    r.Tariff.CostPerKWH,
	}
	if ss := r.SolarSystem; ss != nil {
		in.PowerKWP = ss.PowerKWP
		if ss.IrradiationKWHM2Day > 0 {
			in.IrradiationKWHM2Day = ss.IrradiationKWHM2Day
		}
		if ss.PerformanceRatio > 0 {
			in.PerformanceRatio = ss.PerformanceRatio
		}
	}
	return in
}
