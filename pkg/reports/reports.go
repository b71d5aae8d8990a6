// Package reports builds daily energy reports for a residence.
package reports

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/shopspring/decimal"

	"github.com/energywise/energywise/pkg/tariff"
	"github.com/energywise/energywise/pkg/types"
)

// ErrInvalidDays is returned for a period other than ValidDays.
var ErrInvalidDays = errors.New("invalid report period")

// ValidDays are the supported report periods.
var ValidDays = []int{7, 30, 90}

const (
	// used for months without data
	fallbackDailyConsumptionKWH = 15.0
	// daily values vary by up to this fraction around the monthly average
	dailyJitter = 0.2
)

// Generator builds reports using tariff rates.
type Generator struct {
	rates *tariff.Rates
	// exportCreditRatio is the share of the import price credited for each
	// generated kWh.
	exportCreditRatio float64
}

// NewGenerator returns a Generator crediting generation at exportCreditRatio
// of the import price.
func NewGenerator(rates *tariff.Rates, exportCreditRatio float64) *Generator {
	return &Generator{rates: rates, exportCreditRatio: exportCreditRatio}
}

// Configured registers the report flags.
func Configured(rates *tariff.Rates) *Generator {
	ratioStr := lflag.String("report-export-credit-ratio", "0.3333", "Fraction of the import price credited per generated kWh")

	g := &Generator{rates: rates}
	lflag.Do(func() {
		ratio, err := strconv.ParseFloat(*ratioStr, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			panic(fmt.Sprintf("report-export-credit-ratio must be a number within [0, 1]: %q", *ratioStr))
		}
		g.exportCreditRatio = ratio
	})
	return g
}

// Daily returns one report per day for the days ending on end, newest first.
// Each day spreads its calendar month's totals evenly with a deterministic
// variation so the same residence and date always produce the same numbers.
func (g *Generator) Daily(r types.Residence, end time.Time, days int) ([]types.DailyReport, error) {
	if !slices.Contains(ValidDays, days) {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidDays, days)
	}
	rate, err := g.rates.For(r.Tariff)
	if err != nil {
		return nil, fmt.Errorf("failed to price tariff: %w", err)
	}

	byMonth := make(map[string]types.MonthlyDatum, len(r.Data))
	for _, d := range r.Data {
		byMonth[d.Month] = d
	}

	end = time.Date(end.Year(), end.Month(), end.Day(), 12, 0, 0, 0, end.Location())
	out := make([]types.DailyReport, 0, days)
	for i := 0; i < days; i++ {
		day := end.AddDate(0, 0, -i)
		date := day.Format(time.DateOnly)
		rnd := dayRand(r.ID, date)

		consumption, generation := dailyAverages(byMonth, day)
		consumption *= 1 + (rnd.Float64()*2-1)*dailyJitter
		generation *= 1 + (rnd.Float64()*2-1)*dailyJitter

		price, err := rate.AveragePrice(day)
		if err != nil {
			return nil, fmt.Errorf("failed to price %s: %w", date, err)
		}
		cost := decimal.NewFromFloat(tariff.Cost(consumption, price)).
			Sub(decimal.NewFromFloat(tariff.Cost(generation, price*g.exportCreditRatio)))

		out = append(out, types.DailyReport{
			Date:           date,
			ConsumptionKWH: round2(consumption),
			GenerationKWH:  round2(generation),
			NetKWH:         round2(generation - consumption),
			Cost:           cost.Round(2).InexactFloat64(),
		})
	}
	return out, nil
}

func dailyAverages(byMonth map[string]types.MonthlyDatum, day time.Time) (float64, float64) {
	daysInMonth := float64(time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day())
	d, ok := byMonth[day.Month().String()[:3]]
	if !ok {
		return fallbackDailyConsumptionKWH, 0
	}
	var generation float64
	if d.GenerationKWH != nil {
		generation = *d.GenerationKWH / daysInMonth
	}
	return d.ConsumptionKWH / daysInMonth, generation
}

// dayRand is seeded from the residence and date.
func dayRand(residenceID int, date string) *rand.Rand {
	h := fnv.New64a()
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], uint64(residenceID))
	h.Write(id[:])
	h.Write([]byte(date))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum>>32|sum<<32))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Totals sums a set of daily reports.
func Totals(reports []types.DailyReport) types.DailyReport {
	var consumption, generation, net, cost decimal.Decimal
	for _, r := range reports {
		consumption = consumption.Add(decimal.NewFromFloat(r.ConsumptionKWH))
		generation = generation.Add(decimal.NewFromFloat(r.GenerationKWH))
		net = net.Add(decimal.NewFromFloat(r.NetKWH))
		cost = cost.Add(decimal.NewFromFloat(r.Cost))
	}
	return types.DailyReport{
		ConsumptionKWH: consumption.InexactFloat64(),
		GenerationKWH:  generation.InexactFloat64(),
		NetKWH:         net.InexactFloat64(),
		Cost:           cost.InexactFloat64(),
	}
}

// Average divides totals over n days, rounded to cents. Zero days yields a
// zero report.
func Average(totals types.DailyReport, n int) types.DailyReport {
	if n <= 0 {
		return types.DailyReport{}
	}
	div := func(v float64) float64 {
		return decimal.NewFromFloat(v).Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
	}
	return types.DailyReport{
		ConsumptionKWH: div(totals.ConsumptionKWH),
		GenerationKWH:  div(totals.GenerationKWH),
		NetKWH:         div(totals.NetKWH),
		Cost:           div(totals.Cost),
	}
}
