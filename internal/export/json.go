package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/piwi3910/shelfcut/internal/model"
)

// Report is the JSON document written by WriteJSON.
type Report struct {
	Options  model.Options         `json:"options"`
	Stats    model.Stats           `json:"stats"`
	Class    model.EfficiencyClass `json:"efficiency_class"`
	Sheets   []model.Sheet         `json:"sheets"`
	Unplaced []model.UnplacedPiece `json:"unplaced"`
}

// NewReport bundles a result with its statistics.
func NewReport(result model.PackingResult, opts model.Options) Report {
	st := result.Stats()
	r := Report{
		Options:  opts,
		Stats:    st,
		Class:    model.ClassifyEfficiency(st.Efficiency),
		Sheets:   result.Sheets,
		Unplaced: result.Unplaced,
	}
	if r.Sheets == nil {
		r.Sheets = []model.Sheet{}
	}
	if r.Unplaced == nil {
		r.Unplaced = []model.UnplacedPiece{}
	}
	return r
}

// WriteJSON writes the indented report for result to w.
func WriteJSON(w io.Writer, result model.PackingResult, opts model.Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(result, opts)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
