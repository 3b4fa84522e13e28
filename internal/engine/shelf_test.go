package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/shelfcut/internal/model"
)

func newShelf(w, h float64, rotate bool) *shelfState {
	opts := model.DefaultOptions()
	opts.AllowRotation = rotate
	return openSheet(w, h, opts)
}

func TestShelf_PlaceAdvancesCursor(t *testing.T) {
	s := newShelf(1000, 1000, false)
	p := s.place(model.UnitPiece{ID: "a", Width: 300, Height: 200}, orientNormal)

	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 0.0, p.Y)
	assert.Equal(t, 300.0, s.cursorX)
	assert.Equal(t, 0.0, s.cursorY)
	assert.Equal(t, 200.0, s.rowHeight)

	s.place(model.UnitPiece{ID: "b", Width: 400, Height: 100}, orientRotated)
	assert.Equal(t, 400.0, s.cursorX, "rotated piece advances by its height")
	assert.Equal(t, 400.0, s.rowHeight)
	assert.Len(t, s.sheet.Pieces, 2)
	assert.True(t, s.sheet.Pieces[1].Piece.Rotated)
}

func TestShelf_AdvanceRow(t *testing.T) {
	s := newShelf(1000, 1000, false)
	s.place(model.UnitPiece{Width: 300, Height: 250}, orientNormal)
	s.advanceRow()

	assert.Equal(t, 0.0, s.cursorX)
	assert.Equal(t, 250.0, s.cursorY)
	assert.Equal(t, 0.0, s.rowHeight)
	assert.Equal(t, 0, s.rowCount)
}

func TestShelf_OrientPrefersNormal(t *testing.T) {
	s := newShelf(1000, 1300, true)
	assert.Equal(t, orientNormal, s.orient(model.UnitPiece{Width: 200, Height: 100}))
	assert.Equal(t, orientRotated, s.orient(model.UnitPiece{Width: 1200, Height: 100}))
	assert.Equal(t, orientNone, s.orient(model.UnitPiece{Width: 1400, Height: 1100}))

	noRotate := newShelf(1000, 1300, false)
	assert.Equal(t, orientNone, noRotate.orient(model.UnitPiece{Width: 1200, Height: 100}))
}

func TestShelf_FillDefersRowStartFailures(t *testing.T) {
	s := newShelf(1000, 600, false)
	queue := []model.UnitPiece{
		{ID: "tall", Width: 600, Height: 500},
		{ID: "blocked", Width: 600, Height: 300}, // next row starts at 500, too tall
		{ID: "strip", Width: 1000, Height: 100},
	}

	rest := s.fill(queue)

	require.Len(t, rest, 1)
	assert.Equal(t, "blocked", rest[0].ID)
	require.Len(t, s.sheet.Pieces, 2)
	assert.Equal(t, "strip", s.sheet.Pieces[1].Piece.ID)
	assert.Equal(t, 0.0, s.sheet.Pieces[1].X)
	assert.Equal(t, 500.0, s.sheet.Pieces[1].Y)
}

func TestShelf_FillClearsStaleRotation(t *testing.T) {
	s := newShelf(1000, 1000, false)
	rest := s.fill([]model.UnitPiece{{ID: "x", Width: 100, Height: 100, Rotated: true}})

	assert.Empty(t, rest)
	assert.False(t, s.sheet.Pieces[0].Piece.Rotated)
}

// ─── Gate helpers ──────────────────────────────────────────

func TestGate_Admit(t *testing.T) {
	g := newEfficiencyGate(model.DefaultOptions())
	sparse := model.Sheet{Width: 100, Height: 100, Pieces: []model.PlacedPiece{{Piece: model.UnitPiece{Width: 10, Height: 10}}}}
	dense := model.Sheet{Width: 100, Height: 100, Pieces: []model.PlacedPiece{{Piece: model.UnitPiece{Width: 100, Height: 90}}}}

	how, ok := g.admit(sparse, 0)
	assert.True(t, ok)
	assert.Equal(t, model.AcceptedBootstrap, how)

	_, ok = g.admit(sparse, 1)
	assert.False(t, ok)

	how, ok = g.admit(dense, 3)
	assert.True(t, ok)
	assert.Equal(t, model.AcceptedThreshold, how)
}

func TestGate_RequeueOrderAndReset(t *testing.T) {
	rejected := model.Sheet{Pieces: []model.PlacedPiece{
		{Piece: model.UnitPiece{ID: "a", Rotated: true}},
		{Piece: model.UnitPiece{ID: "b"}},
	}}
	rest := []model.UnitPiece{{ID: "c"}}

	q := requeue(rejected, rest)
	assert.Equal(t, []string{"c", "a", "b"}, ids(q))
	for _, p := range q {
		assert.False(t, p.Rotated)
	}
	assert.Equal(t, "c|a|b", queueSignature(q))
}

func TestCandidate_BetterKeepsEarlierOnTie(t *testing.T) {
	var best *candidate
	first := model.Sheet{Width: 10, Height: 10, Pieces: []model.PlacedPiece{{Piece: model.UnitPiece{ID: "1", Width: 5, Height: 10}}}}
	assert.True(t, best.better(first))

	best = &candidate{sheet: first}
	tie := model.Sheet{Width: 10, Height: 10, Pieces: []model.PlacedPiece{{Piece: model.UnitPiece{ID: "2", Width: 10, Height: 5}}}}
	assert.False(t, best.better(tie))
}

func TestClassifyUnplaced_OnlyAllowedOrientationsCount(t *testing.T) {
	queue := []model.UnitPiece{
		{ID: "long", Label: "Long", Width: 900, Height: 100, Rotated: true},
		{ID: "sq", Label: "Sq", Width: 600, Height: 600},
	}

	opts := model.DefaultOptions()
	opts.MaxSheets = 1
	got := classifyUnplaced(queue, 800, 1000, opts)
	require.Len(t, got, 2)

	// Fits only when turned, and turning is off: no orientation it may use fits.
	assert.Equal(t, model.ReasonTooLarge, got[0].Reason)
	assert.Contains(t, got[0].Message, "rotation is disabled")
	assert.False(t, got[0].Piece.Rotated)
	assert.Equal(t, model.ReasonNoSpace, got[1].Reason)

	opts.AllowRotation = true
	got = classifyUnplaced(queue, 800, 1000, opts)
	assert.Equal(t, model.ReasonNoSpace, got[0].Reason)
	assert.Contains(t, got[0].Message, "limit of 1 sheets")
}
