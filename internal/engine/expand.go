package engine

import (
	"fmt"
	"strconv"

	"github.com/piwi3910/shelfcut/internal/model"
)

// Expand turns quantity-bearing specs into individual unit pieces. Output
// order is specs in input order, then repeats within each spec; that order is
// the tie-break baseline for sorting. Any spec with a non-positive or
// non-finite width, height or quantity fails the whole expansion with
// model.ErrInvalidDimension.
func Expand(specs []model.PieceSpec) ([]model.UnitPiece, error) {
	total := 0
	for i, s := range specs {
		if err := validateSpec(i, s); err != nil {
			return nil, err
		}
		total += s.Quantity
	}

	expanded := make([]model.UnitPiece, 0, total)
	for i, s := range specs {
		specID := s.ID
		if specID == "" {
			specID = fmt.Sprintf("spec-%d", i)
		}
		label := s.Label
		if label == "" {
			label = fmt.Sprintf("Piece %d", i+1)
		}
		for n := 0; n < s.Quantity; n++ {
			expanded = append(expanded, model.UnitPiece{
				ID:        unitID(len(expanded), s.Width, s.Height),
				SpecID:    specID,
				SpecIndex: i,
				Label:     label,
				Width:     s.Width,
				Height:    s.Height,
				Color:     s.Color,
			})
		}
	}
	return expanded, nil
}

func validateSpec(i int, s model.PieceSpec) error {
	if !model.IsPositiveFinite(s.Width) {
		return fmt.Errorf("%w: piece %d width %v", model.ErrInvalidDimension, i+1, s.Width)
	}
	if !model.IsPositiveFinite(s.Height) {
		return fmt.Errorf("%w: piece %d height %v", model.ErrInvalidDimension, i+1, s.Height)
	}
	if s.Quantity <= 0 {
		return fmt.Errorf("%w: piece %d quantity %d", model.ErrInvalidDimension, i+1, s.Quantity)
	}
	return nil
}

// unitID builds "<index>_<w>x<h>".
func unitID(index int, w, h float64) string {
	return strconv.Itoa(index) + "_" + formatDim(w) + "x" + formatDim(h)
}

func formatDim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
