package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/storage"
	"github.com/energywise/energywise/pkg/store"
	"github.com/energywise/energywise/pkg/types"
)

// seed writes the sample residences to the firestore emulator and extends
// each residence's meter readings up to today.
func main() {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	}
	s := storage.Configured()
	window := lflag.Duration("readings-window", 30*24*time.Hour, "How far back to add daily meter readings per residence")
	lflag.Configure()
	if _, err := log.ConfigureFromFlags(); err != nil {
		panic(err)
	}

	ctx := context.Background()
	defer s.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding sample data")
	if err := store.Seed(ctx, s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	st := store.New(s, nil)
	if err := st.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	days := int(window.Hours() / 24)
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	today := time.Now()
	for _, r := range st.Snapshot().Residences {
		latest, _ := r.LatestReading()
		value := latest.ReadingKWH
		if value == 0 {
			value = 1000
		}
		// the daily usage hovers around the residence's average month
		var avg float64
		for _, d := range r.Data {
			avg += d.ConsumptionKWH
		}
		if len(r.Data) > 0 {
			avg /= float64(len(r.Data)) * 30
		} else {
			avg = 15
		}

		var added int
		for i := days - 1; i >= 0; i-- {
			date := today.AddDate(0, 0, -i).Format(time.DateOnly)
			if date <= latest.Date {
				continue
			}
			value += avg * (0.8 + rng.Float64()*0.4)
			_, err := st.RecordReading(ctx, r.ID, types.Reading{
				Date:        date,
				ReadingKWH:  float64(int(value*100)) / 100,
				SubmittedBy: types.SubmittedByAutomatic,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to record reading for residence %d: %v\n", r.ID, err)
				os.Exit(1)
			}
			added++
		}
		log.Ctx(ctx).InfoContext(ctx, "added readings", "residenceID", r.ID, "count", added)
	}
}
