package engine

import (
	"math"

	"github.com/piwi3910/shelfcut/internal/model"
)

// orientation is the outcome of fitting a piece at the cursor.
type orientation int

const (
	orientNone orientation = iota
	orientNormal
	orientRotated
)

// shelfState is the cursor of a sheet being filled row by row. Pieces go in
// left to right; when one does not fit the row is closed and a new one starts
// below the tallest piece of the old row.
type shelfState struct {
	sheet         model.Sheet
	cursorX       float64
	cursorY       float64
	rowHeight     float64 // Tallest placed height in the current row
	rowCount      int     // Pieces in the current row
	kerf          float64
	allowRotation bool
}

// openSheet starts an empty sheet with the cursor at the top-left corner.
func openSheet(width, height float64, opts model.Options) *shelfState {
	return &shelfState{
		sheet:         model.Sheet{Width: width, Height: height},
		kerf:          opts.Kerf,
		allowRotation: opts.AllowRotation,
	}
}

// fits reports whether a w x h box fits at the cursor.
func (s *shelfState) fits(w, h float64) bool {
	return s.cursorX+w <= s.sheet.Width && s.cursorY+h <= s.sheet.Height
}

// orient picks the first orientation that fits at the cursor, normal before rotated.
func (s *shelfState) orient(p model.UnitPiece) orientation {
	if s.fits(p.Width, p.Height) {
		return orientNormal
	}
	if s.allowRotation && s.fits(p.Height, p.Width) {
		return orientRotated
	}
	return orientNone
}

// place puts p at the cursor in the given orientation and advances the cursor.
func (s *shelfState) place(p model.UnitPiece, o orientation) model.PlacedPiece {
	p.Rotated = o == orientRotated
	placed := model.PlacedPiece{Piece: p, X: s.cursorX, Y: s.cursorY}
	s.sheet.Pieces = append(s.sheet.Pieces, placed)

	s.cursorX += p.PlacedWidth() + s.kerf
	s.rowHeight = math.Max(s.rowHeight, p.PlacedHeight())
	s.rowCount++
	return placed
}

// advanceRow closes the current row and moves the cursor to the start of the next.
func (s *shelfState) advanceRow() {
	s.cursorY += s.rowHeight + s.kerf
	s.cursorX = 0
	s.rowHeight = 0
	s.rowCount = 0
}

// fill walks the queue once and returns the pieces it could not place, in
// queue order. A piece that fails at the start of a row stays behind for the
// next sheet; the cursor is left where it is.
func (s *shelfState) fill(queue []model.UnitPiece) []model.UnitPiece {
	var rest []model.UnitPiece
	for _, p := range queue {
		p = p.Reset()
		o := s.orient(p)
		if o == orientNone && s.rowCount > 0 {
			s.advanceRow()
			o = s.orient(p)
		}
		if o == orientNone {
			rest = append(rest, p)
			continue
		}
		s.place(p, o)
	}
	return rest
}
