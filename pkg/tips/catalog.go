// Package tips serves energy-saving advice: a static catalog and
// personalized suggestions from a generative model.
package tips

import (
	"strings"

	"github.com/energywise/energywise/pkg/types"
)

// All matches every category or difficulty in Filter.
const All = "All"

var catalog = []types.SavingTip{
	{
		ID:                   1,
		Title:                "Switch to LED Bulbs",
		Description:          "Replace incandescent bulbs with LEDs. They use up to 75% less energy and last 25 times longer.",
		Category:             types.TipCategoryLighting,
		Difficulty:           types.TipDifficultyEasy,
		SavingsPercent:       15,
		HouseholdPerformance: 7,
	},
	{
		ID:                   2,
		Title:                "Optimize Refrigerator Use",
		Description:          "Keep your fridge well-stocked but not overfilled to maintain its temperature efficiently.",
		Category:             types.TipCategoryRefrigeration,
		Difficulty:           types.TipDifficultyEasy,
		SavingsPercent:       10,
		HouseholdPerformance: -2,
	},
	{
		ID:                   3,
		Title:                "Unplug Electronics",
		Description:          "Phantom load from electronics can account for 5-10% of your energy bill. Unplug them when not in use.",
		Category:             types.TipCategoryElectronics,
		Difficulty:           types.TipDifficultyMedium,
		SavingsPercent:       8,
		HouseholdPerformance: 15,
	},
	{
		ID:                   4,
		Title:                "Install a Smart Thermostat",
		Description:          "Automate your heating and cooling schedule to reduce energy waste when you're away or asleep.",
		Category:             types.TipCategoryHVAC,
		Difficulty:           types.TipDifficultyHard,
		SavingsPercent:       20,
		HouseholdPerformance: -5,
	},
	{
		ID:             5,
		Title:          "Wash Clothes in Cold Water",
		Description:    "About 90% of the energy used by a washing machine is for heating water. Use cold water to save.",
		Category:       types.TipCategoryAppliances,
		Difficulty:     types.TipDifficultyEasy,
		SavingsPercent: 5,
	},
	{
		ID:                   6,
		Title:                "Seal Air Leaks",
		Description:          "Use caulk or weatherstripping to seal leaks around windows and doors to prevent heat loss.",
		Category:             types.TipCategoryHomeImprovement,
		Difficulty:           types.TipDifficultyMedium,
		SavingsPercent:       12,
		HouseholdPerformance: 9,
	},
}

// Catalog returns a copy of the saving-tips catalog.
func Catalog() []types.SavingTip {
	return append([]types.SavingTip(nil), catalog...)
}

// Filter returns the tips matching category and difficulty. An empty value or
// All matches everything. Matching ignores case.
func Filter(list []types.SavingTip, category, difficulty string) []types.SavingTip {
	out := make([]types.SavingTip, 0, len(list))
	for _, t := range list {
		if !matches(string(t.Category), category) || !matches(string(t.Difficulty), difficulty) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(value, want string) bool {
	if want == "" || strings.EqualFold(want, All) {
		return true
	}
	return strings.EqualFold(value, want)
}
