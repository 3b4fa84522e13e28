// Package export renders packing results as PDF sheet layouts, QR-coded
// piece labels and JSON reports.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/shelfcut/internal/model"
)

// ErrNothingToExport is returned when a result has neither sheets nor unplaced pieces.
var ErrNothingToExport = errors.New("nothing to export")

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// PDFOptions controls what ExportPDF renders.
type PDFOptions struct {
	// Settings are echoed on the summary page.
	Settings model.Options
	// MaxSheets caps the number of sheet pages; 0 renders all of them.
	MaxSheets int
}

// ExportPDF generates a PDF document with one page per sheet layout,
// followed by a summary page with statistics and unplaced piece warnings.
func ExportPDF(path string, result model.PackingResult, opts PDFOptions) error {
	if len(result.Sheets) == 0 && len(result.Unplaced) == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	shown := len(result.Sheets)
	if opts.MaxSheets > 0 && shown > opts.MaxSheets {
		shown = opts.MaxSheets
	}
	for i := 0; i < shown; i++ {
		pdf.AddPage()
		renderSheetPage(pdf, result.Sheets[i], i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result, opts, shown)

	return pdf.OutputFileAndClose(path)
}

// renderSheetPage draws a single sheet on the current PDF page.
func renderSheetPage(pdf *fpdf.Fpdf, sheet model.Sheet, sheetNum int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d (%.0f x %.0f mm)", sheetNum, sheet.Width, sheet.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Pieces: %d | Used area: %.0f mm² | Waste: %.0f mm² | Efficiency: %.1f%% (%s) | Accepted: %s",
		len(sheet.Pieces), sheet.UsedArea(), sheet.WasteArea(), sheet.Efficiency()*100,
		model.ClassifyEfficiency(sheet.Efficiency()), sheet.Accepted)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight

	scale := math.Min(drawWidth/sheet.Width, drawHeight/sheet.Height)
	canvasW := sheet.Width * scale
	canvasH := sheet.Height * scale

	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Sheet background
	pdf.SetFillColor(210, 180, 140)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for i, p := range sheet.Pieces {
		fill := pieceColor(p.Piece.Color, i)
		pw := p.PlacedWidth() * scale
		ph := p.PlacedHeight() * scale
		px := offsetX + p.X*scale
		py := offsetY + p.Y*scale

		pdf.SetFillColor(fill.R, fill.G, fill.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 15 && ph > 8 {
			txt := textColor(fill)
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(txt.R, txt.G, txt.B)

			label := p.Piece.Label
			dims := fmt.Sprintf("%.0fx%.0f", p.PlacedWidth(), p.PlacedHeight())

			labelW := pdf.GetStringWidth(label)
			dimsW := pdf.GetStringWidth(dims)

			if labelW < pw-2 {
				pdf.SetXY(px+(pw-labelW)/2, py+ph/2-4)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
			if ph > 14 && dimsW < pw-2 {
				pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
				pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
			}
			pdf.SetTextColor(0, 0, 0)
		}
	}

	drawDimensionAnnotations(pdf, sheet, offsetX, offsetY, canvasW, canvasH)
	drawPiecesLegend(pdf, sheet, offsetY+canvasH+5)
}

// drawDimensionAnnotations adds width and height labels outside the sheet rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, sheet model.Sheet, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", sheet.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.0f mm", sheet.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawPiecesLegend renders a compact legend of placed pieces below the sheet.
func drawPiecesLegend(pdf *fpdf.Fpdf, sheet model.Sheet, startY float64) {
	if len(sheet.Pieces) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Pieces placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, p := range sheet.Pieces {
		fill := pieceColor(p.Piece.Color, i)
		label := fmt.Sprintf("%s (%.0fx%.0f)", p.Piece.Label, p.Piece.Width, p.Piece.Height)
		if p.Piece.Rotated {
			label += " R"
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(fill.R, fill.G, fill.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.PackingResult, opts PDFOptions, shown int) {
	st := result.Stats()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Sheet Packing Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Total Sheets Used", fmt.Sprintf("%d", st.TotalSheets)},
		{"Overall Efficiency", fmt.Sprintf("%.1f%% (%s)", st.Efficiency*100, model.ClassifyEfficiency(st.Efficiency))},
		{"Used / Total Area", fmt.Sprintf("%.0f / %.0f mm²", st.UsedArea, st.TotalArea)},
		{"Waste Area", fmt.Sprintf("%.0f mm²", st.WasteArea)},
		{"Pieces Placed", fmt.Sprintf("%d", st.PlacedPieces)},
		{"Unplaced Pieces", fmt.Sprintf("%d", st.UnplacedPieces)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	if len(result.Sheets) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
		y += 9

		colWidths := []float64{20, 50, 30, 40, 35, 60}
		headers := []string{"Sheet", "Dimensions", "Pieces", "Efficiency", "Accepted", "Used / Total Area"}

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, header := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += 6

		pdf.SetFont("Helvetica", "", 9)
		for i := 0; i < shown; i++ {
			sheet := result.Sheets[i]
			xPos = marginLeft
			rowData := []string{
				fmt.Sprintf("%d", i+1),
				fmt.Sprintf("%.0f x %.0f mm", sheet.Width, sheet.Height),
				fmt.Sprintf("%d", len(sheet.Pieces)),
				fmt.Sprintf("%.1f%%", sheet.Efficiency()*100),
				string(sheet.Accepted),
				fmt.Sprintf("%.0f / %.0f mm²", sheet.UsedArea(), sheet.TotalArea()),
			}

			if i%2 == 0 {
				pdf.SetFillColor(245, 245, 245)
			} else {
				pdf.SetFillColor(255, 255, 255)
			}

			for j, cell := range rowData {
				pdf.SetXY(xPos, y)
				pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
				xPos += colWidths[j]
			}
			y += 6
		}

		if hidden := len(result.Sheets) - shown; hidden > 0 {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.SetXY(marginLeft, y+1)
			pdf.CellFormat(200, 5, fmt.Sprintf("... and %d more sheets not shown", hidden), "", 0, "L", false, 0, "")
			y += 6
		}
	}

	if len(result.Unplaced) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Unplaced Pieces", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)

		for _, u := range result.Unplaced {
			if y > pageHeight-marginBottom-10 {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 5, "...", "", 0, "L", false, 0, "")
				break
			}
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s [%s]: %s", u.Piece.Label, u.Reason, u.Message)
			pdf.CellFormat(pageWidth-marginLeft-marginRight-5, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	y += 8
	if y < pageHeight-marginBottom-30 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(100, 7, "Settings", "", 0, "L", false, 0, "")
		y += 9

		s := opts.Settings
		settingsItems := []struct {
			label string
			value string
		}{
			{"Sort Method", s.SortMethod.String()},
			{"Rotation", fmt.Sprintf("%t", s.AllowRotation)},
			{"Efficiency Threshold", fmt.Sprintf("%.0f%%", s.EfficiencyThreshold*100)},
			{"Kerf", fmt.Sprintf("%.1f mm", s.Kerf)},
		}

		pdf.SetFont("Helvetica", "", 9)
		for _, item := range settingsItems {
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 5, item.value, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by shelfcut", "", 0, "C", false, 0, "")
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
