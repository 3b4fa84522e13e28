package engine

import (
	"fmt"

	"github.com/piwi3910/shelfcut/internal/model"
)

// ComparisonScenario defines a named set of options to compare.
type ComparisonScenario struct {
	Name    string
	Options model.Options
}

// ComparisonResult holds the optimization result and computed statistics
// for a single scenario. Err is set when the scenario's options or the input
// were rejected; Result and Stats are then empty.
type ComparisonResult struct {
	Scenario ComparisonScenario
	Result   model.PackingResult
	Stats    model.Stats
	Err      error
}

// CompareScenarios runs optimization for each scenario and returns the results
// in scenario order.
func CompareScenarios(scenarios []ComparisonScenario, pieces []model.PieceSpec, sheetWidth, sheetHeight float64) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := New(scenario.Options).Optimize(pieces, sheetWidth, sheetHeight)
		cr := ComparisonResult{Scenario: scenario, Err: err}
		if err == nil {
			cr.Result = result
			cr.Stats = result.Stats()
		}
		results = append(results, cr)
	}

	return results
}

// BuildDefaultScenarios generates what-if alternatives around the base
// options: every other sort method, and the opposite rotation policy.
func BuildDefaultScenarios(base model.Options) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:    "Current Settings",
			Options: base,
		},
	}

	for _, m := range model.SortMethods() {
		if m == base.SortMethod {
			continue
		}
		alt := base
		alt.SortMethod = m
		scenarios = append(scenarios, ComparisonScenario{
			Name:    fmt.Sprintf("Sort by %s", m),
			Options: alt,
		})
	}

	flipped := base
	flipped.AllowRotation = !base.AllowRotation
	name := "Rotation Enabled"
	if base.AllowRotation {
		name = "Rotation Disabled"
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Options: flipped})

	return scenarios
}

// BestScenario returns the index of the best successful result: fewest
// unplaced pieces, then fewest sheets, then highest efficiency. Earlier
// scenarios win ties. It returns -1 if no scenario succeeded.
func BestScenario(results []ComparisonResult) int {
	best := -1
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		if best < 0 || beats(r.Stats, results[best].Stats) {
			best = i
		}
	}
	return best
}

func beats(a, b model.Stats) bool {
	if a.UnplacedPieces != b.UnplacedPieces {
		return a.UnplacedPieces < b.UnplacedPieces
	}
	if a.TotalSheets != b.TotalSheets {
		return a.TotalSheets < b.TotalSheets
	}
	return a.Efficiency > b.Efficiency
}
