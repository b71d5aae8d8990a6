// Package tariff prices energy for a residence's tariff modality.
package tariff

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/levenlabs/go-lflag"
	"github.com/shopspring/decimal"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/types"
)

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// whiteBands are the priced bands of the white tariff. Hours outside every
// band are off-peak.
var whiteBands = []types.TariffBand{
	{
		TariffPeriod: types.TariffPeriod{HourStart: 18, HourEnd: 21, DaysOfTheWeek: weekdays},
		Name:         "Ponta",
		Multiplier:   1.9,
	},
	{
		TariffPeriod: types.TariffPeriod{HourStart: 17, HourEnd: 18, DaysOfTheWeek: weekdays},
		Name:         "Intermediário",
		Multiplier:   1.25,
	},
	{
		TariffPeriod: types.TariffPeriod{HourStart: 21, HourEnd: 22, DaysOfTheWeek: weekdays},
		Name:         "Intermediário",
		Multiplier:   1.25,
	},
}

const (
	offPeakName       = "Fora Ponta"
	offPeakMultiplier = 0.8
)

// Rates builds a Rate for a residence's tariff. Bands are evaluated in the
// configured location.
type Rates struct {
	location *time.Location
}

// NewRates returns Rates evaluating bands in loc. A nil loc means UTC.
func NewRates(loc *time.Location) *Rates {
	if loc == nil {
		loc = time.UTC
	}
	return &Rates{location: loc}
}

// Configured registers the tariff flags.
func Configured() *Rates {
	location := lflag.String("tariff-location", "America/Sao_Paulo", "Time zone used to evaluate time-of-use tariff bands")

	r := &Rates{}
	lflag.Do(func() {
		loc, err := time.LoadLocation(*location)
		if err != nil {
			panic(fmt.Sprintf("failed to load tariff location %s: %v", *location, err))
		}
		r.location = loc
		ctx := context.Background()
		log.Ctx(ctx).DebugContext(ctx, "tariff location configured", slog.String("location", loc.String()))
	})
	return r
}

// List describes the supported modalities.
func (r *Rates) List() []types.TariffInfo {
	bands := make([]types.TariffBand, 0, len(whiteBands)+1)
	bands = append(bands, whiteBands...)
	bands = append(bands, types.TariffBand{
		TariffPeriod: types.TariffPeriod{HourStart: 0, HourEnd: 24},
		Name:         offPeakName,
		Multiplier:   offPeakMultiplier,
	})
	for i := range bands {
		bands[i].Location = r.location.String()
	}
	return []types.TariffInfo{
		{
			Modality:    types.TariffModalityConventional,
			Name:        "Convencional",
			Description: "Single price per kWh at any time of day.",
		},
		{
			Modality:    types.TariffModalityWhite,
			Name:        "Horo-sazonal (Branca)",
			Description: "Weekday peak and intermediate bands cost more and every other hour costs less than the conventional price.",
			Bands:       bands,
		},
	}
}

// For returns the Rate of a tariff.
func (r *Rates) For(t types.Tariff) (*Rate, error) {
	if t.CostPerKWH < 0 {
		return nil, fmt.Errorf("tariff cost must not be negative: %v", t.CostPerKWH)
	}
	rate := &Rate{base: t.CostPerKWH, location: r.location}
	switch t.Modality {
	case "", types.TariffModalityConventional:
	case types.TariffModalityWhite:
		rate.bands = make([]types.TariffBand, len(whiteBands))
		copy(rate.bands, whiteBands)
		for i := range rate.bands {
			rate.bands[i].LocationPtr = r.location
		}
	default:
		return nil, fmt.Errorf("unsupported tariff modality: %s", t.Modality)
	}
	return rate, nil
}

// Rate prices energy at a point in time.
type Rate struct {
	base     float64
	bands    []types.TariffBand
	location *time.Location
}

// PriceAt returns the price per kWh in effect at t.
func (r *Rate) PriceAt(t time.Time) (float64, error) {
	if len(r.bands) == 0 {
		return r.base, nil
	}
	for _, band := range r.bands {
		contains, err := band.Contains(t)
		if err != nil {
			return 0, err
		}
		if contains {
			return r.base * band.Multiplier, nil
		}
	}
	return r.base * offPeakMultiplier, nil
}

// AveragePrice is the mean hourly price over the calendar day containing t.
func (r *Rate) AveragePrice(t time.Time) (float64, error) {
	t = t.In(r.location)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.location)
	var sum float64
	for h := 0; h < 24; h++ {
		p, err := r.PriceAt(start.Add(time.Duration(h) * time.Hour))
		if err != nil {
			return 0, err
		}
		sum += p
	}
	return sum / 24, nil
}

// RoundMoney rounds an amount to cents.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Cost is kwh priced at pricePerKWH, rounded to cents.
func Cost(kwh, pricePerKWH float64) float64 {
	return decimal.NewFromFloat(kwh).Mul(decimal.NewFromFloat(pricePerKWH)).Round(2).InexactFloat64()
}
