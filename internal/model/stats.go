package model

// Stats summarises a set of sheets.
type Stats struct {
	TotalSheets    int     `json:"total_sheets"`
	TotalArea      float64 `json:"total_area"`
	UsedArea       float64 `json:"used_area"`
	WasteArea      float64 `json:"waste_area"`
	Efficiency     float64 `json:"efficiency"` // Fraction in [0, 1], 0 when there are no sheets
	PlacedPieces   int     `json:"placed_pieces"`
	UnplacedPieces int     `json:"unplaced_pieces"`
}

// ComputeStats aggregates sheets without modifying them.
func ComputeStats(sheets []Sheet) Stats {
	st := Stats{TotalSheets: len(sheets)}
	for _, s := range sheets {
		st.TotalArea += s.TotalArea()
		st.UsedArea += s.UsedArea()
		st.PlacedPieces += len(s.Pieces)
	}
	st.WasteArea = st.TotalArea - st.UsedArea
	if st.TotalArea > 0 {
		st.Efficiency = st.UsedArea / st.TotalArea
	}
	return st
}

// EfficiencyClass buckets an efficiency for display.
type EfficiencyClass string

const (
	EfficiencyHigh   EfficiencyClass = "high"
	EfficiencyMedium EfficiencyClass = "medium"
	EfficiencyLow    EfficiencyClass = "low"
)

// ClassifyEfficiency maps a fraction to a display class.
func ClassifyEfficiency(e float64) EfficiencyClass {
	switch {
	case e >= 0.85:
		return EfficiencyHigh
	case e >= 0.70:
		return EfficiencyMedium
	default:
		return EfficiencyLow
	}
}
