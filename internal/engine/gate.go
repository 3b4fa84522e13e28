package engine

import (
	"strings"

	"github.com/piwi3910/shelfcut/internal/model"
)

// efficiencyGate decides whether a filled sheet is kept or thrown back.
type efficiencyGate struct {
	threshold  float64
	maxRetries int
}

func newEfficiencyGate(opts model.Options) efficiencyGate {
	return efficiencyGate{
		threshold:  opts.EfficiencyThreshold,
		maxRetries: opts.MaxGateRetries,
	}
}

// admit accepts the first sheet of a run unconditionally and any later sheet
// whose efficiency reaches the threshold.
func (g efficiencyGate) admit(sheet model.Sheet, acceptedSoFar int) (model.Acceptance, bool) {
	if acceptedSoFar == 0 {
		return model.AcceptedBootstrap, true
	}
	if sheet.Efficiency() >= g.threshold {
		return model.AcceptedThreshold, true
	}
	return "", false
}

// candidate is a rejected sheet kept in case every retry does worse.
type candidate struct {
	sheet model.Sheet
	rest  []model.UnitPiece
}

// better reports whether sheet beats the current best. Ties keep the earlier one.
func (c *candidate) better(sheet model.Sheet) bool {
	return c == nil || sheet.Efficiency() > c.sheet.Efficiency()
}

// requeue builds the queue for a retry after a rejection: the pieces the
// sheet left behind go first so they seed the next attempt, followed by the
// rejected sheet's pieces in placement order with rotation cleared.
func requeue(rejected model.Sheet, rest []model.UnitPiece) []model.UnitPiece {
	queue := make([]model.UnitPiece, 0, len(rest)+len(rejected.Pieces))
	queue = append(queue, rest...)
	for _, p := range rejected.Pieces {
		queue = append(queue, p.Piece.Reset())
	}
	return queue
}

// queueSignature identifies a queue by the order of its piece IDs.
func queueSignature(queue []model.UnitPiece) string {
	var b strings.Builder
	for i, p := range queue {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(p.ID)
	}
	return b.String()
}
