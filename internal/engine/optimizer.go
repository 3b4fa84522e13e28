package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/piwi3910/shelfcut/internal/model"
)

// Optimizer runs the shelf packing algorithm with a fixed set of options.
// It holds no state between calls, so one Optimizer may be shared.
type Optimizer struct {
	Options model.Options
	logger  *zap.Logger
}

func New(opts model.Options) *Optimizer {
	return &Optimizer{Options: opts, logger: zap.NewNop()}
}

// WithLogger sets the logger used for per-sheet debug output.
func (o *Optimizer) WithLogger(logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	o.logger = logger
	return o
}

// Optimize packs pieces onto as few sheetWidth x sheetHeight sheets as it can
// using the package defaults for everything but the options given.
func Optimize(pieces []model.PieceSpec, sheetWidth, sheetHeight float64, opts model.Options) (model.PackingResult, error) {
	return New(opts).Optimize(pieces, sheetWidth, sheetHeight)
}

// Optimize packs pieces onto sheets. It fails before any placement if the
// options, the sheet size or any piece is invalid; otherwise it always returns
// a complete result, listing pieces it could not place in Unplaced.
func (o *Optimizer) Optimize(pieces []model.PieceSpec, sheetWidth, sheetHeight float64) (model.PackingResult, error) {
	if err := o.Options.Validate(); err != nil {
		return model.PackingResult{}, err
	}
	if !model.IsPositiveFinite(sheetWidth) || !model.IsPositiveFinite(sheetHeight) {
		return model.PackingResult{}, fmt.Errorf("%w: sheet %v x %v", model.ErrInvalidDimension, sheetWidth, sheetHeight)
	}

	expanded, err := Expand(pieces)
	if err != nil {
		return model.PackingResult{}, err
	}

	result := model.PackingResult{
		Sheets:   []model.Sheet{},
		Unplaced: []model.UnplacedPiece{},
	}
	if len(expanded) == 0 {
		return result, nil
	}

	queue := SortPieces(expanded, o.Options.SortMethod)
	rank := make(map[string]int, len(queue))
	for i, p := range queue {
		rank[p.ID] = i
	}

	o.logger.Debug("packing started",
		zap.Int("pieces", len(queue)),
		zap.Float64("sheet_width", sheetWidth),
		zap.Float64("sheet_height", sheetHeight),
		zap.String("sort", string(o.Options.SortMethod)),
		zap.Bool("rotation", o.Options.AllowRotation),
		zap.Float64("threshold", o.Options.EfficiencyThreshold),
	)

	gate := newEfficiencyGate(o.Options)
	for len(queue) > 0 {
		if o.Options.MaxSheets > 0 && len(result.Sheets) >= o.Options.MaxSheets {
			o.logger.Debug("sheet limit reached", zap.Int("max_sheets", o.Options.MaxSheets), zap.Int("remaining", len(queue)))
			break
		}

		sheet, rest, ok := o.nextSheet(gate, queue, sheetWidth, sheetHeight, len(result.Sheets))
		if !ok {
			break
		}
		result.Sheets = append(result.Sheets, sheet)
		queue = restoreOrder(rest, rank)
	}

	result.Unplaced = classifyUnplaced(queue, sheetWidth, sheetHeight, o.Options)

	o.logger.Debug("packing finished",
		zap.Int("sheets", len(result.Sheets)),
		zap.Int("placed", result.PlacedCount()),
		zap.Int("unplaced", len(result.Unplaced)),
	)
	return result, nil
}

// nextSheet fills and gates one sheet. A rejected sheet's pieces are requeued
// and the sheet is rebuilt, until the gate accepts, the retry budget runs out,
// or a retry would repeat a queue order already tried. In the last two cases
// the best rejected sheet is accepted. It returns false when the queue holds
// nothing that fits an empty sheet.
func (o *Optimizer) nextSheet(gate efficiencyGate, queue []model.UnitPiece, w, h float64, accepted int) (model.Sheet, []model.UnitPiece, bool) {
	tried := map[string]bool{}
	var best *candidate

	for attempt := 0; ; attempt++ {
		tried[queueSignature(queue)] = true

		shelf := openSheet(w, h, o.Options)
		rest := shelf.fill(queue)
		sheet := shelf.sheet

		if len(sheet.Pieces) == 0 {
			if best != nil {
				break
			}
			return model.Sheet{}, queue, false
		}

		if how, ok := gate.admit(sheet, accepted); ok {
			sheet.Accepted = how
			o.logger.Debug("sheet accepted",
				zap.Int("sheet", accepted+1),
				zap.String("by", string(how)),
				zap.Int("pieces", len(sheet.Pieces)),
				zap.Float64("efficiency", sheet.Efficiency()),
				zap.Int("attempt", attempt+1),
			)
			return sheet, rest, true
		}

		o.logger.Debug("sheet rejected",
			zap.Int("sheet", accepted+1),
			zap.Int("pieces", len(sheet.Pieces)),
			zap.Float64("efficiency", sheet.Efficiency()),
			zap.Int("attempt", attempt+1),
		)
		if best.better(sheet) {
			best = &candidate{sheet: sheet, rest: rest}
		}

		next := requeue(sheet, rest)
		if attempt >= gate.maxRetries || tried[queueSignature(next)] {
			break
		}
		queue = next
	}

	best.sheet.Accepted = model.AcceptedFallback
	o.logger.Debug("sheet accepted",
		zap.Int("sheet", accepted+1),
		zap.String("by", string(model.AcceptedFallback)),
		zap.Int("pieces", len(best.sheet.Pieces)),
		zap.Float64("efficiency", best.sheet.Efficiency()),
	)
	return best.sheet, best.rest, true
}

// restoreOrder puts leftover pieces back into their sorted order so every new
// sheet starts from the same ordering policy.
func restoreOrder(pieces []model.UnitPiece, rank map[string]int) []model.UnitPiece {
	ordered := make([]model.UnitPiece, len(pieces))
	copy(ordered, pieces)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[ordered[i].ID] < rank[ordered[j].ID]
	})
	return ordered
}
