package importer

import (
	"fmt"

	"github.com/piwi3910/shelfcut/internal/model"
)

// Discarded is a piece removed by Prefilter together with the reason shown
// to the user.
type Discarded struct {
	Piece  model.PieceSpec
	Reason string
}

// Prefilter removes pieces that cannot fit an empty sheet in any allowed
// orientation. Kept pieces retain their input order.
func Prefilter(specs []model.PieceSpec, sheetWidth, sheetHeight float64, allowRotation bool) ([]model.PieceSpec, []Discarded) {
	kept := make([]model.PieceSpec, 0, len(specs))
	var discarded []Discarded

	for _, s := range specs {
		normal := s.Width <= sheetWidth && s.Height <= sheetHeight
		rotated := allowRotation && s.Height <= sheetWidth && s.Width <= sheetHeight
		if normal || rotated {
			kept = append(kept, s)
			continue
		}

		reason := fmt.Sprintf("%s (%gx%g) does not fit the %gx%g sheet",
			s.Label, s.Width, s.Height, sheetWidth, sheetHeight)
		if allowRotation {
			reason += " in either orientation"
		} else {
			reason += " and rotation is disabled"
		}
		discarded = append(discarded, Discarded{Piece: s, Reason: reason})
	}

	return kept, discarded
}
