package types

import (
	"fmt"
	"math"
)

// Tip is a short piece of energy-saving advice.
type Tip struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TipCategory string

const (
	TipCategoryLighting        TipCategory = "Lighting"
	TipCategoryRefrigeration   TipCategory = "Refrigeration"
	TipCategoryElectronics     TipCategory = "Electronics"
	TipCategoryHVAC            TipCategory = "HVAC"
	TipCategoryAppliances      TipCategory = "Appliances"
	TipCategoryHomeImprovement TipCategory = "Home Improvement"
)

type TipDifficulty string

const (
	TipDifficultyEasy   TipDifficulty = "Easy"
	TipDifficultyMedium TipDifficulty = "Medium"
	TipDifficultyHard   TipDifficulty = "Hard"
)

// SavingTip is an entry of the saving-tips catalog. Performance values are
// percentages relative to a typical household for the category.
type SavingTip struct {
	ID                   int           `json:"id"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Category             TipCategory   `json:"category"`
	Difficulty           TipDifficulty `json:"difficulty"`
	SavingsPercent       float64       `json:"savings"`
	HouseholdPerformance float64       `json:"householdPerformance"`
	TypicalPerformance   float64       `json:"typicalPerformance"`
}

// PerformanceLabel describes how the household compares to typical usage for
// the tip's category.
func (t SavingTip) PerformanceLabel() string {
	diff := t.HouseholdPerformance - t.TypicalPerformance
	switch {
	case diff > 0:
		return fmt.Sprintf("%g%% over typical", diff)
	case diff < 0:
		return fmt.Sprintf("%g%% under typical", math.Abs(diff))
	default:
		return "Matches typical"
	}
}
