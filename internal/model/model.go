package model

import "github.com/google/uuid"

// PieceSpec is a requested piece size with a quantity, as collected from the user.
type PieceSpec struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Color    string  `json:"color"` // Display attribute, passed through untouched
	Quantity int     `json:"quantity"`
}

func NewPieceSpec(label string, w, h float64, qty int, color string) PieceSpec {
	return PieceSpec{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Width:    w,
		Height:   h,
		Color:    color,
		Quantity: qty,
	}
}

// Area returns the area of a single piece of this spec.
func (p PieceSpec) Area() float64 {
	return p.Width * p.Height
}

// UnitPiece is one physical piece to place, expanded from a PieceSpec.
// Width and Height always hold the spec's values; Rotated only selects which
// of them is used as the placed width.
type UnitPiece struct {
	ID        string  `json:"id"`         // "<expansion index>_<w>x<h>"
	SpecID    string  `json:"spec_id"`    // ID of the originating PieceSpec
	SpecIndex int     `json:"spec_index"` // Position of the originating PieceSpec in the input
	Label     string  `json:"label"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Color     string  `json:"color"`
	Rotated   bool    `json:"rotated"`
}

// PlacedWidth returns the effective width considering rotation.
func (u UnitPiece) PlacedWidth() float64 {
	if u.Rotated {
		return u.Height
	}
	return u.Width
}

// PlacedHeight returns the effective height considering rotation.
func (u UnitPiece) PlacedHeight() float64 {
	if u.Rotated {
		return u.Width
	}
	return u.Height
}

// Area is orientation independent.
func (u UnitPiece) Area() float64 {
	return u.Width * u.Height
}

// Reset returns a copy of the piece in its unrotated orientation.
func (u UnitPiece) Reset() UnitPiece {
	u.Rotated = false
	return u
}

// PlacedPiece is a unit piece positioned on a sheet. X and Y are the offset of
// its top-left corner from the sheet's top-left corner.
type PlacedPiece struct {
	Piece UnitPiece `json:"piece"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
}

func (p PlacedPiece) PlacedWidth() float64 {
	return p.Piece.PlacedWidth()
}

func (p PlacedPiece) PlacedHeight() float64 {
	return p.Piece.PlacedHeight()
}

// Acceptance records why the efficiency gate let a sheet through.
type Acceptance string

const (
	AcceptedBootstrap Acceptance = "bootstrap" // First sheet of the run
	AcceptedThreshold Acceptance = "threshold" // Efficiency met the threshold
	AcceptedFallback  Acceptance = "fallback"  // Best rejected sheet after retries ran out
)

// Sheet is one fixed-size stock sheet with its placed pieces in placement order.
type Sheet struct {
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Pieces   []PlacedPiece `json:"pieces"`
	Accepted Acceptance    `json:"accepted"`
}

// UsedArea returns the total area covered by placed pieces.
func (s Sheet) UsedArea() float64 {
	var total float64
	for _, p := range s.Pieces {
		total += p.PlacedWidth() * p.PlacedHeight()
	}
	return total
}

// TotalArea returns the sheet area.
func (s Sheet) TotalArea() float64 {
	return s.Width * s.Height
}

// WasteArea returns the uncovered sheet area.
func (s Sheet) WasteArea() float64 {
	return s.TotalArea() - s.UsedArea()
}

// Efficiency returns the covered fraction of the sheet, in [0, 1].
func (s Sheet) Efficiency() float64 {
	ta := s.TotalArea()
	if ta == 0 {
		return 0
	}
	return s.UsedArea() / ta
}

// UnplacedReason classifies why a piece was left off every sheet.
type UnplacedReason string

const (
	// ReasonTooLarge means no allowed orientation fits an empty sheet.
	ReasonTooLarge UnplacedReason = "too_large_even_rotated"
	// ReasonNoSpace means the piece fits an empty sheet but no sheet took it.
	ReasonNoSpace UnplacedReason = "no_space_found"
)

func (r UnplacedReason) String() string {
	switch r {
	case ReasonTooLarge:
		return "TooLargeEvenRotated"
	case ReasonNoSpace:
		return "NoSpaceFound"
	default:
		return string(r)
	}
}

// UnplacedPiece is a unit piece that could not be placed, with a readable reason.
type UnplacedPiece struct {
	Piece   UnitPiece      `json:"piece"`
	Reason  UnplacedReason `json:"reason"`
	Message string         `json:"message"`
}

// PackingResult holds the full solution of one optimization call.
type PackingResult struct {
	Sheets   []Sheet         `json:"sheets"`
	Unplaced []UnplacedPiece `json:"unplaced"`
}

// PlacedCount returns the number of pieces placed across all sheets.
func (r PackingResult) PlacedCount() int {
	total := 0
	for _, s := range r.Sheets {
		total += len(s.Pieces)
	}
	return total
}

// Stats aggregates the result's sheets and unplaced pieces.
func (r PackingResult) Stats() Stats {
	st := ComputeStats(r.Sheets)
	st.UnplacedPieces = len(r.Unplaced)
	return st
}
