package types

// Trend is the month-over-month direction of consumption.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// MetricsSnapshot is derived from a residence's monthly series on every read
// and never persisted.
type MetricsSnapshot struct {
	LastMonthConsumption float64  `json:"lastMonthConsumption"`
	ConsumptionTrend     Trend    `json:"consumptionTrend"`
	ConsumptionDiff      float64  `json:"consumptionDiff"`
	AvgConsumption       float64  `json:"avgConsumption"`
	LastMonthGeneration  *float64 `json:"lastMonthGeneration,omitempty"`
	NetEnergy            float64  `json:"netEnergy"`
}

// ForecastPoint is the estimated generation of one calendar month.
type ForecastPoint struct {
	Month         string  `json:"month"`
	GenerationKWH float64 `json:"generation"`
}

// YieldForecast is the output of a solar yield estimation.
type YieldForecast struct {
	AvgMonthlyGeneration float64         `json:"avgMonthlyGeneration"`
	TotalGeneration      float64         `json:"totalGeneration"`
	AnnualSavings        float64         `json:"annualSavings"`
	CO2AvoidedTons       float64         `json:"co2AvoidedTons"`
	MonthlyForecast      []ForecastPoint `json:"monthlyForecast"`
}

// DailyReport summarizes one day of a residence's energy flow.
type DailyReport struct {
	Date           string  `json:"date"`
	ConsumptionKWH float64 `json:"consumption"`
	GenerationKWH  float64 `json:"generation"`
	NetKWH         float64 `json:"net"`
	Cost           float64 `json:"cost"`
}
