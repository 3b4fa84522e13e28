package engine

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/piwi3910/shelfcut/internal/model"
)

func spec(label string, w, h float64, qty int) model.PieceSpec {
	return model.PieceSpec{ID: label, Label: label, Width: w, Height: h, Quantity: qty, Color: "#336699"}
}

func noRotation() model.Options {
	return model.DefaultOptions()
}

func withRotation() model.Options {
	opts := model.DefaultOptions()
	opts.AllowRotation = true
	return opts
}

func pieceIDs(s model.Sheet) []string {
	ids := make([]string, 0, len(s.Pieces))
	for _, p := range s.Pieces {
		ids = append(ids, p.Piece.ID)
	}
	return ids
}

// ─── Scenarios ─────────────────────────────────────────────

func TestOptimize_TwoPiecesStackIntoRows(t *testing.T) {
	result, err := Optimize([]model.PieceSpec{spec("A", 600, 400, 2)}, 1000, 1000, noRotation())
	require.NoError(t, err)

	require.Len(t, result.Sheets, 1)
	assert.Empty(t, result.Unplaced)

	sheet := result.Sheets[0]
	require.Len(t, sheet.Pieces, 2)
	assert.Equal(t, 0.0, sheet.Pieces[0].X)
	assert.Equal(t, 0.0, sheet.Pieces[0].Y)
	assert.Equal(t, 0.0, sheet.Pieces[1].X)
	assert.Equal(t, 400.0, sheet.Pieces[1].Y)
	assert.InDelta(t, 0.48, sheet.Efficiency(), 1e-9)
	assert.Equal(t, model.AcceptedBootstrap, sheet.Accepted)
}

func TestOptimize_RotatesWhenOnlyRotatedFits(t *testing.T) {
	result, err := Optimize([]model.PieceSpec{spec("Long", 900, 100, 1)}, 800, 1000, withRotation())
	require.NoError(t, err)

	require.Len(t, result.Sheets, 1)
	p := result.Sheets[0].Pieces[0]
	assert.True(t, p.Piece.Rotated)
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 0.0, p.Y)
	assert.Equal(t, 100.0, p.PlacedWidth())
	assert.Equal(t, 900.0, p.PlacedHeight())
	assert.Equal(t, 900.0, p.Piece.Width, "nominal width must survive rotation")
}

func TestOptimize_TooLargeWithoutRotation(t *testing.T) {
	result, err := Optimize([]model.PieceSpec{spec("Long", 900, 100, 1)}, 800, 1000, noRotation())
	require.NoError(t, err)

	assert.Empty(t, result.Sheets)
	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, model.ReasonTooLarge, result.Unplaced[0].Reason)
	assert.Contains(t, result.Unplaced[0].Message, "rotation is disabled")
}

func TestOptimize_TooLargeEvenRotated(t *testing.T) {
	result, err := Optimize([]model.PieceSpec{spec("Huge", 1200, 900, 1)}, 1000, 800, withRotation())
	require.NoError(t, err)

	assert.Empty(t, result.Sheets)
	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, model.ReasonTooLarge, result.Unplaced[0].Reason)
	assert.Contains(t, result.Unplaced[0].Message, "even when rotated")
}

func TestOptimize_PrefersNormalWhenBothFit(t *testing.T) {
	result, err := Optimize([]model.PieceSpec{spec("Long", 900, 100, 1)}, 1000, 950, withRotation())
	require.NoError(t, err)

	require.Len(t, result.Sheets, 1)
	p := result.Sheets[0].Pieces[0]
	assert.False(t, p.Piece.Rotated)
	assert.Equal(t, 900.0, p.PlacedWidth())
}

func TestOptimize_EmptyInput(t *testing.T) {
	result, err := Optimize(nil, 1000, 1000, noRotation())
	require.NoError(t, err)

	assert.NotNil(t, result.Sheets)
	assert.NotNil(t, result.Unplaced)
	assert.Empty(t, result.Sheets)
	assert.Empty(t, result.Unplaced)
	assert.Equal(t, 0.0, result.Stats().Efficiency)
}

func TestOptimize_InvalidDimensionFailsBeforePlacement(t *testing.T) {
	pieces := []model.PieceSpec{spec("Good", 100, 100, 5), spec("Bad", 0, 100, 1)}
	result, err := Optimize(pieces, 1000, 1000, noRotation())

	require.ErrorIs(t, err, model.ErrInvalidDimension)
	assert.Empty(t, result.Sheets)
	assert.Empty(t, result.Unplaced)
}

func TestOptimize_InvalidSheet(t *testing.T) {
	_, err := Optimize([]model.PieceSpec{spec("A", 10, 10, 1)}, 0, 1000, noRotation())
	assert.ErrorIs(t, err, model.ErrInvalidDimension)

	_, err = Optimize([]model.PieceSpec{spec("A", 10, 10, 1)}, 1000, math.Inf(1), noRotation())
	assert.ErrorIs(t, err, model.ErrInvalidDimension)
}

func TestOptimize_InvalidOptions(t *testing.T) {
	opts := noRotation()
	opts.SortMethod = "perimeter"
	_, err := Optimize([]model.PieceSpec{spec("A", 10, 10, 1)}, 100, 100, opts)
	assert.ErrorIs(t, err, model.ErrInvalidOptions)
}

func TestOptimize_RotatesMidRow(t *testing.T) {
	pieces := []model.PieceSpec{spec("Wide", 600, 500, 1), spec("Narrow", 500, 400, 1)}

	result, err := Optimize(pieces, 1000, 500, withRotation())
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	second := result.Sheets[0].Pieces[1]
	assert.True(t, second.Piece.Rotated)
	assert.Equal(t, 600.0, second.X)
	assert.Equal(t, 0.0, second.Y)
	assert.Equal(t, 1.0, result.Sheets[0].Efficiency())

	result, err = Optimize(pieces, 1000, 500, noRotation())
	require.NoError(t, err)
	require.Len(t, result.Sheets, 2)
	assert.Empty(t, result.Unplaced)
	assert.False(t, result.Sheets[1].Pieces[0].Piece.Rotated)
}

// ─── Efficiency gate ───────────────────────────────────────

func gateFixture() []model.PieceSpec {
	return []model.PieceSpec{
		spec("P", 1000, 1000, 1),
		spec("A", 1000, 600, 1),
		spec("B", 1000, 500, 2),
	}
}

func TestOptimize_GateRetryFindsDenserSheet(t *testing.T) {
	result, err := Optimize(gateFixture(), 1000, 1000, noRotation())
	require.NoError(t, err)
	require.Len(t, result.Sheets, 3)
	assert.Empty(t, result.Unplaced)

	assert.Equal(t, []string{"0_1000x1000"}, pieceIDs(result.Sheets[0]))
	assert.Equal(t, model.AcceptedBootstrap, result.Sheets[0].Accepted)

	// The first attempt at sheet two only held A (60%); the retry leads with
	// the two B pieces, which fill the sheet.
	assert.Equal(t, []string{"2_1000x500", "3_1000x500"}, pieceIDs(result.Sheets[1]))
	assert.Equal(t, model.AcceptedThreshold, result.Sheets[1].Accepted)
	assert.Equal(t, 1.0, result.Sheets[1].Efficiency())

	assert.Equal(t, []string{"1_1000x600"}, pieceIDs(result.Sheets[2]))
	assert.Equal(t, model.AcceptedFallback, result.Sheets[2].Accepted)
}

func TestOptimize_GateWithoutRetriesFallsBackImmediately(t *testing.T) {
	opts := noRotation()
	opts.MaxGateRetries = 0

	result, err := Optimize(gateFixture(), 1000, 1000, opts)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 3)

	assert.Equal(t, []string{"1_1000x600"}, pieceIDs(result.Sheets[1]))
	assert.Equal(t, model.AcceptedFallback, result.Sheets[1].Accepted)
	assert.Equal(t, []string{"2_1000x500", "3_1000x500"}, pieceIDs(result.Sheets[2]))
	assert.Equal(t, model.AcceptedThreshold, result.Sheets[2].Accepted)
}

func TestOptimize_ZeroThresholdAcceptsEverything(t *testing.T) {
	opts := noRotation()
	opts.EfficiencyThreshold = 0

	result, err := Optimize(gateFixture(), 1000, 1000, opts)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 3)
	assert.Equal(t, []string{"1_1000x600"}, pieceIDs(result.Sheets[1]))
	for _, s := range result.Sheets[1:] {
		assert.Equal(t, model.AcceptedThreshold, s.Accepted)
	}
}

func TestOptimize_SparseLastSheetTerminates(t *testing.T) {
	pieces := []model.PieceSpec{spec("Full", 1000, 1000, 1), spec("Small", 500, 500, 1)}
	result, err := Optimize(pieces, 1000, 1000, noRotation())
	require.NoError(t, err)

	require.Len(t, result.Sheets, 2)
	assert.Equal(t, model.AcceptedFallback, result.Sheets[1].Accepted)
	assert.InDelta(t, 0.25, result.Sheets[1].Efficiency(), 1e-9)
}

// ─── Supplemented options ──────────────────────────────────

func TestOptimize_MaxSheetsLeavesNoSpaceFound(t *testing.T) {
	opts := noRotation()
	opts.EfficiencyThreshold = 0
	opts.MaxSheets = 2

	result, err := Optimize([]model.PieceSpec{spec("Sq", 600, 600, 3)}, 1000, 1000, opts)
	require.NoError(t, err)

	assert.Len(t, result.Sheets, 2)
	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, model.ReasonNoSpace, result.Unplaced[0].Reason)
	assert.Contains(t, result.Unplaced[0].Message, "limit of 2 sheets")
}

func TestOptimize_KerfSeparatesPieces(t *testing.T) {
	pieces := []model.PieceSpec{spec("Half", 500, 500, 2)}

	result, err := Optimize(pieces, 1000, 1020, noRotation())
	require.NoError(t, err)
	require.Len(t, result.Sheets[0].Pieces, 2)
	assert.Equal(t, 500.0, result.Sheets[0].Pieces[1].X)
	assert.Equal(t, 0.0, result.Sheets[0].Pieces[1].Y)

	opts := noRotation()
	opts.Kerf = 10
	result, err = Optimize(pieces, 1000, 1020, opts)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	require.Len(t, result.Sheets[0].Pieces, 2)
	assert.Equal(t, 0.0, result.Sheets[0].Pieces[1].X)
	assert.Equal(t, 510.0, result.Sheets[0].Pieces[1].Y)
}

func TestOptimizer_LogsPasses(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)

	opt := New(noRotation()).WithLogger(zap.New(core))
	_, err := opt.Optimize(gateFixture(), 1000, 1000)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "sheet rejected")
	assert.Contains(t, out, `"by":"fallback"`)
	assert.Contains(t, out, "packing finished")
}

func TestOptimizer_NilLoggerIsSafe(t *testing.T) {
	opt := New(noRotation()).WithLogger(nil)
	_, err := opt.Optimize([]model.PieceSpec{spec("A", 10, 10, 1)}, 100, 100)
	assert.NoError(t, err)
}

// ─── Properties ────────────────────────────────────────────

func randomPieces(rng *rand.Rand, n int) []model.PieceSpec {
	pieces := make([]model.PieceSpec, n)
	for i := range pieces {
		pieces[i] = model.PieceSpec{
			Label:    "R",
			Width:    float64(50 + rng.Intn(1150)),
			Height:   float64(50 + rng.Intn(1150)),
			Quantity: 1 + rng.Intn(3),
		}
	}
	return pieces
}

func randomOptions(rng *rand.Rand) model.Options {
	opts := model.DefaultOptions()
	opts.AllowRotation = rng.Intn(2) == 0
	methods := model.SortMethods()
	opts.SortMethod = methods[rng.Intn(len(methods))]
	if rng.Intn(3) == 0 {
		opts.Kerf = 3
	}
	return opts
}

func overlaps(a, b model.PlacedPiece) bool {
	return a.X < b.X+b.PlacedWidth() && b.X < a.X+a.PlacedWidth() &&
		a.Y < b.Y+b.PlacedHeight() && b.Y < a.Y+a.PlacedHeight()
}

func TestOptimize_Properties(t *testing.T) {
	const sheetW, sheetH = 1000.0, 800.0
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 60; run++ {
		pieces := randomPieces(rng, 5+rng.Intn(30))
		opts := randomOptions(rng)

		expanded, err := Expand(pieces)
		require.NoError(t, err)

		result, err := Optimize(pieces, sheetW, sheetH, opts)
		require.NoError(t, err)

		// Conservation
		assert.Equal(t, len(expanded), result.PlacedCount()+len(result.Unplaced), "run %d", run)

		for si, sheet := range result.Sheets {
			var sum float64
			for i, p := range sheet.Pieces {
				// Containment
				assert.GreaterOrEqual(t, p.X, 0.0)
				assert.GreaterOrEqual(t, p.Y, 0.0)
				assert.LessOrEqual(t, p.X+p.PlacedWidth(), sheetW)
				assert.LessOrEqual(t, p.Y+p.PlacedHeight(), sheetH)
				// Rotation legality
				if !opts.AllowRotation {
					assert.False(t, p.Piece.Rotated)
				}
				for _, q := range sheet.Pieces[i+1:] {
					assert.False(t, overlaps(p, q), "run %d sheet %d: %s overlaps %s", run, si, p.Piece.ID, q.Piece.ID)
				}
				sum += p.PlacedWidth() * p.PlacedHeight()
			}
			// Area bound
			assert.LessOrEqual(t, sheet.UsedArea(), sheetW*sheetH)
			assert.Equal(t, sum, sheet.UsedArea())
			assert.NotEmpty(t, sheet.Pieces)

			// Gate
			if si == 0 {
				assert.Equal(t, model.AcceptedBootstrap, sheet.Accepted)
			} else {
				assert.NotEqual(t, model.AcceptedBootstrap, sheet.Accepted)
				if sheet.Accepted == model.AcceptedThreshold {
					assert.GreaterOrEqual(t, sheet.Efficiency(), opts.EfficiencyThreshold)
				}
			}
		}

		// With no sheet limit anything left over cannot fit an empty sheet.
		for _, up := range result.Unplaced {
			assert.Equal(t, model.ReasonTooLarge, up.Reason)
			assert.False(t, up.Piece.Rotated)
		}
	}
}

func TestOptimize_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pieces := randomPieces(rng, 40)
	opts := withRotation()

	first, err := Optimize(pieces, 2440, 1220, opts)
	require.NoError(t, err)
	second, err := Optimize(pieces, 2440, 1220, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestOptimize_ResultDoesNotAliasInput(t *testing.T) {
	pieces := []model.PieceSpec{spec("A", 600, 400, 2)}
	result, err := Optimize(pieces, 1000, 1000, noRotation())
	require.NoError(t, err)

	result.Sheets[0].Pieces[0].Piece.Label = "changed"
	assert.Equal(t, "A", pieces[0].Label)

	again, err := Optimize(pieces, 1000, 1000, noRotation())
	require.NoError(t, err)
	assert.Equal(t, "A", again.Sheets[0].Pieces[0].Piece.Label)
}
