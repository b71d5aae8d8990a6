package types

import (
	"fmt"
	"slices"
	"time"
)

// TariffModality is how a residence is billed for energy.
type TariffModality string

const (
	// TariffModalityConventional is a single flat price per kWh.
	TariffModalityConventional TariffModality = "convencional"
	// TariffModalityWhite is the time-of-use ("Branca") tariff with peak,
	// intermediate and off-peak bands on weekdays.
	TariffModalityWhite TariffModality = "horo-sazonal-branca"
)

// Tariff is the billing configuration of a residence.
type Tariff struct {
	Group      string         `json:"group"`
	Subgroup   string         `json:"subgroup"`
	Modality   TariffModality `json:"modality"`
	CostPerKWH float64        `json:"costKwh"`
}

// TariffInfo describes a tariff modality for clients.
type TariffInfo struct {
	Modality    TariffModality `json:"modality"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Bands       []TariffBand   `json:"bands,omitempty"`
}

// TariffBand is a priced period of a time-of-use tariff. Multiplier is
// applied to the residence's base cost per kWh.
type TariffBand struct {
	TariffPeriod
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// TariffPeriod defines an hour band on certain days of the week.
type TariffPeriod struct {
	HourStart     int            `json:"hourStart"`
	HourEnd       int            `json:"hourEnd"`
	DaysOfTheWeek []time.Weekday `json:"daysOfTheWeek,omitempty"`
	Location      string         `json:"location,omitempty"`
	LocationPtr   *time.Location `json:"-"`
}

// Contains checks if a time is within the period.
func (p *TariffPeriod) Contains(t time.Time) (bool, error) {
	if p.LocationPtr != nil {
		t = t.In(p.LocationPtr)
	} else if p.Location != "" {
		loc, err := time.LoadLocation(p.Location)
		if err != nil {
			return false, fmt.Errorf("failed to load location %s: %w", p.Location, err)
		}
		t = t.In(loc)
	}
	if h := t.Hour(); h < p.HourStart || h >= p.HourEnd {
		return false, nil
	}
	if len(p.DaysOfTheWeek) > 0 && !slices.Contains(p.DaysOfTheWeek, t.Weekday()) {
		return false, nil
	}
	return true, nil
}
