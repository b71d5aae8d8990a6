package solar

import "strings"

// Panel technologies understood by Scenario.
const (
	PanelMonocrystalline = "monocrystalline"
	PanelPolycrystalline = "polycrystalline"
	PanelThinFilm        = "thin-film"
)

// Scenario is a what-if adjustment of an installed or planned system.
type Scenario struct {
	// ExpansionPercent grows the installed power, 25 means 25% more panels.
	ExpansionPercent float64 `json:"expansion"`
	PanelType        string  `json:"panelType"`
	// Orientation is a compass direction such as "North" or "South-West".
	Orientation string `json:"orientation"`
}

// DefaultScenario mirrors the simulation page's initial form.
func DefaultScenario() Scenario {
	return Scenario{
		ExpansionPercent: 25,
		PanelType:        PanelPolycrystalline,
		Orientation:      "South-West",
	}
}

// PanelFactor is the relative efficiency of the panel technology.
func (s Scenario) PanelFactor() float64 {
	pt := strings.ToLower(s.PanelType)
	switch {
	case strings.HasPrefix(pt, "mono"):
		return 1.05
	case strings.HasPrefix(pt, "thin"):
		return 0.95
	default:
		return 1.0
	}
}

// OrientationFactor is the share of yield kept by the panel orientation. East
// or West in the direction takes precedence over South.
func (s Scenario) OrientationFactor() float64 {
	o := strings.ToLower(s.Orientation)
	f := 1.0
	if strings.Contains(o, "south") {
		f = 0.85
	}
	if strings.Contains(o, "east") || strings.Contains(o, "west") {
		f = 0.95
	}
	return f
}

// EffectivePower applies the scenario to the base installed power in kWp.
func (s Scenario) EffectivePower(base float64) float64 {
	return base * (1 + s.ExpansionPercent/100) * s.PanelFactor() * s.OrientationFactor()
}
