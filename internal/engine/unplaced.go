package engine

import (
	"fmt"

	"github.com/piwi3910/shelfcut/internal/model"
)

// fitsEmptySheet reports whether p fits an empty w x h sheet in any allowed orientation.
func fitsEmptySheet(p model.UnitPiece, w, h float64, allowRotation bool) bool {
	if p.Width <= w && p.Height <= h {
		return true
	}
	return allowRotation && p.Height <= w && p.Width <= h
}

// classifyUnplaced attaches a reason to every piece left in the queue.
func classifyUnplaced(queue []model.UnitPiece, w, h float64, opts model.Options) []model.UnplacedPiece {
	unplaced := make([]model.UnplacedPiece, 0, len(queue))
	for _, p := range queue {
		p = p.Reset()
		up := model.UnplacedPiece{Piece: p}
		if fitsEmptySheet(p, w, h, opts.AllowRotation) {
			up.Reason = model.ReasonNoSpace
			up.Message = fmt.Sprintf("%s (%s x %s): no sheet had room for it", p.Label, formatDim(p.Width), formatDim(p.Height))
			if opts.MaxSheets > 0 {
				up.Message += fmt.Sprintf(" within the limit of %d sheets", opts.MaxSheets)
			}
		} else {
			up.Reason = model.ReasonTooLarge
			up.Message = fmt.Sprintf("%s (%s x %s) is larger than the %s x %s sheet",
				p.Label, formatDim(p.Width), formatDim(p.Height), formatDim(w), formatDim(h))
			if opts.AllowRotation {
				up.Message += " even when rotated"
			} else {
				up.Message += " and rotation is disabled"
			}
		}
		unplaced = append(unplaced, up)
	}
	return unplaced
}
