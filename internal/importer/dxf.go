package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/shelfcut/internal/model"
)

// point is a 2D vertex of a DXF outline.
type point struct {
	X, Y float64
}

// segment is a line between two points, used for chaining loose LINE and
// ARC entities into closed outlines.
type segment struct {
	start point
	end   point
}

// minDXFSize is the smallest bounding box side kept as a piece.
const minDXFSize = 0.01

// ImportDXF imports pieces from a DXF file. Each closed shape (LWPOLYLINE
// flagged closed or ending on its first vertex, CIRCLE, or chain of
// connected LINEs/ARCs) becomes a rectangular piece the
// size of its bounding box. Shapes with identical boxes are merged into one
// piece with a quantity.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines [][]point
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := lwPolylinePoints(e)
			switch {
			case len(outline) < 3:
				result.Warnings = append(result.Warnings,
					"Skipped LWPOLYLINE with fewer than 3 vertices")
			case !e.Closed && !pointsClose(outline[0], outline[len(outline)-1], 0.01):
				result.Warnings = append(result.Warnings,
					"Skipped open LWPOLYLINE")
			default:
				outlines = append(outlines, outline)
			}

		case *entity.Circle:
			c := point{X: e.Center[0], Y: e.Center[1]}
			outlines = append(outlines, []point{
				{c.X - e.Radius, c.Y - e.Radius},
				{c.X + e.Radius, c.Y - e.Radius},
				{c.X + e.Radius, c.Y + e.Radius},
				{c.X - e.Radius, c.Y + e.Radius},
			})

		case *entity.Arc:
			pts := arcPoints(e, 32)
			for i := 0; i+1 < len(pts); i++ {
				segments = append(segments, segment{start: pts[i], end: pts[i+1]})
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: point{X: e.Start[0], Y: e.Start[1]},
				end:   point{X: e.End[0], Y: e.End[1]},
			})
		}
	}

	outlines = append(outlines, chainSegments(segments, 0.01)...)

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	index := map[[2]float64]int{}
	for _, outline := range outlines {
		width, height := boundingSize(outline)
		if width < minDXFSize || height < minDXFSize {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", width, height))
			continue
		}

		// Round to the import tolerance so sampled arcs group with their twins.
		key := [2]float64{roundHundredth(width), roundHundredth(height)}
		if i, ok := index[key]; ok {
			result.Pieces[i].Quantity++
			continue
		}
		n := len(result.Pieces)
		index[key] = n
		result.Pieces = append(result.Pieces, model.NewPieceSpec(
			fmt.Sprintf("DXF Piece %d", n+1), key[0], key[1], 1, DefaultColor(n)))
	}

	if len(result.Pieces) == 0 {
		result.Errors = append(result.Errors, "No usable shapes found in DXF file")
	}
	return result
}

// lwPolylinePoints converts a DXF LWPOLYLINE to its vertex list.
// Bulged edges are sampled so the bounding box covers the arc.
func lwPolylinePoints(lw *entity.LwPolyline) []point {
	var out []point
	for i, v := range lw.Vertices {
		current := point{X: v[0], Y: v[1]}
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) <= 1e-9 {
			out = append(out, current)
			continue
		}
		nv := lw.Vertices[(i+1)%len(lw.Vertices)]
		arc := bulgePoints(current, point{X: nv[0], Y: nv[1]}, bulge, 32)
		out = append(out, arc[:len(arc)-1]...)
	}
	return out
}

// bulgePoints samples the arc between p1 and p2 for a DXF bulge factor,
// the tangent of a quarter of the included angle. Both endpoints are included.
func bulgePoints(p1, p2 point, bulge float64, n int) []point {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	// Centre lies on the chord's perpendicular bisector, opposite the bulge.
	perpX, perpY := -dy/chord, dx/chord
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	dist := radius - sagitta
	cx := (p1.X+p2.X)/2 + perpX*dist
	cy := (p1.Y+p2.Y)/2 + perpY*dist

	start := math.Atan2(p1.Y-cy, p1.X-cx)
	end := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 && end > start {
		end -= 2 * math.Pi
	}
	if bulge > 0 && end < start {
		end += 2 * math.Pi
	}

	pts := make([]point, n+1)
	for i := 0; i <= n; i++ {
		a := start + float64(i)/float64(n)*(end-start)
		pts[i] = point{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)}
	}
	return pts
}

// arcPoints converts a DXF ARC entity to a polyline.
func arcPoints(a *entity.Arc, n int) []point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius

	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]point, n+1)
	for i := 0; i <= n; i++ {
		angle := startRad + float64(i)/float64(n)*(endRad-startRad)
		pts[i] = point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return pts
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
// Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) [][]point {
	used := make([]bool, len(segs))
	var outlines [][]point

	for start := range segs {
		if used[start] {
			continue
		}
		used[start] = true
		chain := []point{segs[start].start, segs[start].end}

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				switch {
				case pointsClose(tail, seg.start, tolerance):
					chain = append(chain, seg.end)
				case pointsClose(tail, seg.end, tolerance):
					chain = append(chain, seg.start)
				default:
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	// Largest first for a stable piece order.
	sort.SliceStable(outlines, func(i, j int) bool {
		wi, hi := boundingSize(outlines[i])
		wj, hj := boundingSize(outlines[j])
		return wi*hi > wj*hj
	})
	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

// boundingSize returns the width and height of the outline's bounding box.
func boundingSize(o []point) (float64, float64) {
	if len(o) == 0 {
		return 0, 0
	}
	minX, minY := o[0].X, o[0].Y
	maxX, maxY := minX, minY
	for _, p := range o[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return maxX - minX, maxY - minY
}

func roundHundredth(v float64) float64 {
	return math.Round(v*100) / 100
}
