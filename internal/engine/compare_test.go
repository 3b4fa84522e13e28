package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/shelfcut/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	base := model.DefaultOptions()
	scenarios := BuildDefaultScenarios(base)

	require.Len(t, scenarios, 5)
	assert.Equal(t, "Current Settings", scenarios[0].Name)
	assert.Equal(t, base, scenarios[0].Options)

	seen := map[model.SortMethod]bool{}
	for _, s := range scenarios[1:4] {
		seen[s.Options.SortMethod] = true
		assert.Equal(t, base.AllowRotation, s.Options.AllowRotation)
	}
	assert.False(t, seen[base.SortMethod])
	assert.Len(t, seen, 3)

	last := scenarios[4]
	assert.Equal(t, "Rotation Enabled", last.Name)
	assert.True(t, last.Options.AllowRotation)
}

func TestBuildDefaultScenarios_RotationOn(t *testing.T) {
	base := model.DefaultOptions()
	base.AllowRotation = true
	scenarios := BuildDefaultScenarios(base)
	assert.Equal(t, "Rotation Disabled", scenarios[len(scenarios)-1].Name)
}

func TestCompareScenarios(t *testing.T) {
	pieces := []model.PieceSpec{spec("Long", 900, 100, 1), spec("Sq", 400, 400, 2)}
	scenarios := BuildDefaultScenarios(model.DefaultOptions())

	results := CompareScenarios(scenarios, pieces, 800, 1000)
	require.Len(t, results, len(scenarios))

	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, scenarios[i].Name, r.Scenario.Name)
		assert.Equal(t, r.Result.Stats(), r.Stats)
	}

	// Only the rotation scenario can place the 900 wide piece on an 800 wide sheet.
	best := BestScenario(results)
	require.GreaterOrEqual(t, best, 0)
	assert.True(t, results[best].Scenario.Options.AllowRotation)
	assert.Equal(t, 0, results[best].Stats.UnplacedPieces)
}

func TestCompareScenarios_InvalidScenario(t *testing.T) {
	bad := model.DefaultOptions()
	bad.EfficiencyThreshold = 2
	results := CompareScenarios([]ComparisonScenario{{Name: "bad", Options: bad}}, []model.PieceSpec{spec("A", 1, 1, 1)}, 10, 10)

	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Err, model.ErrInvalidOptions))
	assert.Equal(t, -1, BestScenario(results))
}
