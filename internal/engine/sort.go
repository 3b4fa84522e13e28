package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/shelfcut/internal/model"
)

// SortPieces returns a copy of pieces ordered by the method's key, largest
// first. The sort is stable so equal keys keep their expansion order.
func SortPieces(pieces []model.UnitPiece, method model.SortMethod) []model.UnitPiece {
	sorted := make([]model.UnitPiece, len(pieces))
	copy(sorted, pieces)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sortKey(sorted[i], method) > sortKey(sorted[j], method)
	})
	return sorted
}

// sortKey uses the nominal dimensions; rotation state is ignored.
func sortKey(p model.UnitPiece, method model.SortMethod) float64 {
	switch method {
	case model.SortArea:
		return p.Width * p.Height
	case model.SortWidth:
		return p.Width
	case model.SortHeight:
		return p.Height
	default:
		return math.Max(p.Width, p.Height)
	}
}
