package types

import "slices"

const (
	CurrentResidenceVersion = 1
)

// MonthlyDatum is one calendar month of household energy data. Generation is
// nil when the residence has no solar capability, which is different from a
// month that generated nothing.
type MonthlyDatum struct {
	Month          string   `json:"month"`
	ConsumptionKWH float64  `json:"consumption"`
	GenerationKWH  *float64 `json:"generation,omitempty"`
}

// Residence is a household tracked by the dashboard.
type Residence struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	HasSolar    bool           `json:"hasSolar"`
	SolarSystem *SolarSystem   `json:"solarSystem,omitempty"`
	Tariff      Tariff         `json:"tariff"`
	Data        []MonthlyDatum `json:"data"`
	// Readings are ordered newest first.
	Readings []Reading `json:"readings"`
}

// SolarSystem describes an installed photovoltaic system.
type SolarSystem struct {
	PowerKWP         float64 `json:"power"`
	PanelType        string  `json:"panelType"`
	InverterType     string  `json:"inverterType"`
	InstallationDate string  `json:"installationDate"`
	// Optional site parameters used by the yield estimator. Zero means use the
	// estimator's defaults.
	IrradiationKWHM2Day float64 `json:"irradiation,omitempty"`
	PerformanceRatio    float64 `json:"performanceRatio,omitempty"`
}

// ResidenceEnergyProfile holds the inputs of a single yield estimation.
type ResidenceEnergyProfile struct {
	PowerKWP            float64 `json:"power"`
	IrradiationKWHM2Day float64 `json:"irradiation"`
	PerformanceRatio    float64 `json:"performanceRatio"`
	TariffCostPerKWH    float64 `json:"tariffCostPerKwh"`
}

// SubmittedBy records how a meter reading entered the system.
type SubmittedBy string

const (
	SubmittedByManual    SubmittedBy = "Manual"
	SubmittedByAutomatic SubmittedBy = "Automatic"
)

// Reading is a cumulative meter reading.
type Reading struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	ReadingKWH  float64     `json:"reading"`
	UsageKWH    float64     `json:"usage"`
	SubmittedBy SubmittedBy `json:"submittedBy"`
}

// LatestReading returns the newest reading, if any.
func (r Residence) LatestReading() (Reading, bool) {
	if len(r.Readings) == 0 {
		return Reading{}, false
	}
	return r.Readings[0], true
}

// Clone returns a deep copy so callers can't mutate shared slices or pointers.
func (r Residence) Clone() Residence {
	c := r
	if r.SolarSystem != nil {
		ss := *r.SolarSystem
		c.SolarSystem = &ss
	}
	if r.Data != nil {
		c.Data = make([]MonthlyDatum, len(r.Data))
		for i, d := range r.Data {
			if d.GenerationKWH != nil {
				g := *d.GenerationKWH
				d.GenerationKWH = &g
			}
			c.Data[i] = d
		}
	}
	c.Readings = slices.Clone(r.Readings)
	return c
}

// Float64 returns a pointer to v. It's handy for optional generation values.
func Float64(v float64) *float64 {
	return &v
}
