package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/energywise/energywise/pkg/types"
)

var csvHeader = []string{"date", "consumption_kwh", "generation_kwh", "net_kwh", "cost"}

// WriteCSV writes reports as CSV with a header row.
func WriteCSV(w io.Writer, reports []types.DailyReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range reports {
		err := cw.Write([]string{
			r.Date,
			strconv.FormatFloat(r.ConsumptionKWH, 'f', 2, 64),
			strconv.FormatFloat(r.GenerationKWH, 'f', 2, 64),
			strconv.FormatFloat(r.NetKWH, 'f', 2, 64),
			strconv.FormatFloat(r.Cost, 'f', 2, 64),
		})
		if err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
